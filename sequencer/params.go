package sequencer

// KeyTriggerMode decides how keyboard notes drive the sequencer.
type KeyTriggerMode int

const (
	KeyTriggerLast      KeyTriggerMode = iota // restart on every note, stop when the newest is released
	KeyTriggerTranspose                       // start on the first note, follow the newest for transposition
	KeyTriggerFirst                           // start on the first note, stop when it is released
	numKeyTriggerModes
)

const NumKeyTriggerModes = int(numKeyTriggerModes)

var keyTriggerNames = [numKeyTriggerModes]string{"Last Key", "Transpose", "First Key"}

func (m KeyTriggerMode) String() string {
	if m < 0 || m >= numKeyTriggerModes {
		return keyTriggerNames[KeyTriggerLast]
	}
	return keyTriggerNames[m]
}

// Control-surface ranges.
const (
	MinBpm   = 30.0
	MaxBpm   = 240.0
	MaxSwing = 0.75
)

// Params is the control-surface snapshot the host pushes every cycle.
type Params struct {
	Bpm   float64 `json:"bpm"`
	Swing float64 `json:"swing"`

	ArpOn         bool          `json:"arpOn"`
	ArpType       ArpType       `json:"arpType"`
	ArpOctave     int           `json:"arpOctave"`
	ArpGate       float64       `json:"arpGate"`
	ArpResolution Resolution    `json:"arpResolution"`
	Euclid        EuclidPattern `json:"euclid"`
	EuclidLegato  bool          `json:"euclidLegato"`
	VelocityMode  VelocityMode  `json:"velocityMode"`
	FixedVelocity int           `json:"fixedVelocity"`
	Latch         bool          `json:"latch"`

	SeqPlay        bool           `json:"seqPlay"`
	SeqLength      int            `json:"seqLength"`
	SeqResolution  Resolution     `json:"seqResolution"`
	Armed          bool           `json:"armed"`
	Quantize       bool           `json:"quantize"`
	Rest           bool           `json:"rest"`
	Hold           bool           `json:"hold"`
	KeyTrigger     bool           `json:"keyTrigger"`
	KeyTriggerMode KeyTriggerMode `json:"keyTriggerMode"`

	NumVoices      int            `json:"numVoices"`
	StealingPolicy StealingPolicy `json:"stealingPolicy"`
}

func DefaultParams() Params {
	return Params{
		Bpm:            120,
		ArpType:        ArpRise,
		ArpOctave:      1,
		ArpGate:        DefaultLength,
		ArpResolution:  Res8,
		FixedVelocity:  DefaultVelocity,
		SeqLength:      MaxLength,
		SeqResolution:  Res16,
		Quantize:       true,
		NumVoices:      MaxVoices,
		StealingPolicy: StealClosest,
	}
}

// Clamped pulls every value into its control-surface range.
func (p Params) Clamped() Params {
	p.Bpm = clampFloat(p.Bpm, MinBpm, MaxBpm)
	p.Swing = clampFloat(p.Swing, -MaxSwing, MaxSwing)
	p.ArpType = p.ArpType.clamp()
	p.ArpOctave = clampInt(p.ArpOctave, 1, MaxOctaves)
	p.ArpGate = clampFloat(p.ArpGate, MinGate, MaxGate)
	p.ArpResolution = p.ArpResolution.clamp()
	p.Euclid = p.Euclid.clamp()
	if p.VelocityMode < 0 || p.VelocityMode >= numVelocityModes {
		p.VelocityMode = VelocityManual
	}
	p.FixedVelocity = clampVelocity(p.FixedVelocity)
	p.SeqLength = clampInt(p.SeqLength, 1, MaxLength)
	p.SeqResolution = p.SeqResolution.clamp()
	if p.KeyTriggerMode < 0 || p.KeyTriggerMode >= numKeyTriggerModes {
		p.KeyTriggerMode = KeyTriggerLast
	}
	p.NumVoices = clampInt(p.NumVoices, 1, MaxVoices)
	if p.StealingPolicy != StealLRU {
		p.StealingPolicy = StealClosest
	}
	return p
}

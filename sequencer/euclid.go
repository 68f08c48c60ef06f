package sequencer

import "fmt"

// EuclidPattern selects a fill/length pulse distribution. Patterns are
// ordered from densest to sparsest, the way the control surface lists them.
type EuclidPattern int

// EuclidOff plays every step.
const EuclidOff EuclidPattern = 0

var euclidTable = [...][2]int{
	{1, 1},
	{15, 16}, {13, 14}, {12, 13}, {11, 12}, {10, 11}, {9, 10}, {8, 9}, {7, 8},
	{13, 15}, {6, 7}, {11, 13}, {5, 6}, {9, 11}, {13, 16}, {4, 5}, {11, 14},
	{7, 9}, {10, 13}, {3, 4}, {11, 15}, {8, 11}, {5, 7}, {7, 10}, {9, 13},
	{11, 16}, {9, 14}, {7, 11}, {5, 8}, {8, 13}, {3, 5}, {7, 12}, {4, 7},
	{9, 16}, {5, 9}, {6, 11}, {7, 13}, {8, 15}, {7, 15}, {6, 13}, {5, 11},
	{4, 9}, {7, 16}, {3, 7}, {5, 12}, {2, 5}, {5, 13}, {3, 8}, {4, 11},
	{5, 14}, {5, 16}, {4, 13}, {3, 10}, {2, 7}, {3, 11}, {4, 15}, {3, 13},
	{2, 9}, {3, 14}, {3, 16}, {2, 11}, {2, 13}, {2, 15},
}

// NumEuclidPatterns counts every choice including EuclidOff.
const NumEuclidPatterns = len(euclidTable)

// Euclid finds the pattern for a fill/length pair.
func Euclid(fill, length int) (EuclidPattern, bool) {
	for i, fl := range euclidTable {
		if fl[0] == fill && fl[1] == length {
			return EuclidPattern(i), true
		}
	}
	return EuclidOff, false
}

func (e EuclidPattern) clamp() EuclidPattern {
	if e < 0 || int(e) >= NumEuclidPatterns {
		return EuclidOff
	}
	return e
}

func (e EuclidPattern) Fill() int {
	return euclidTable[e.clamp()][0]
}

func (e EuclidPattern) Length() int {
	return euclidTable[e.clamp()][1]
}

// Rotate puts the first pulse on slot 0.
func (e EuclidPattern) Rotate() int {
	return e.Length() / e.Fill()
}

// Hit reports whether slot i of the pattern sounds.
func (e EuclidPattern) Hit(i int) bool {
	fill, length := e.Fill(), e.Length()
	i = posMod(i, length)
	return (fill*(i+e.Rotate()))%length+fill >= length
}

func (e EuclidPattern) String() string {
	if e.clamp() == EuclidOff {
		return "Off"
	}
	return fmt.Sprintf("%d/%d", e.Fill(), e.Length())
}

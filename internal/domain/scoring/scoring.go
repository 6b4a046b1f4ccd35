// Package scoring computes the score awarded for a finalized encounter.
package scoring

// BaseUnit is the score contribution of a single encounter before the
// role multiplier and first-encounter bonus are applied.
const BaseUnit = 1.0

// FirstEncounterBonus doubles the delta for the first finalized
// encounter between a user and a wally.
const FirstEncounterBonus = 2.0

// Delta returns the score increment for one encounter.
//
// delta = BaseUnit * multiplier * (first ? FirstEncounterBonus : 1).
// Roles guarantee multiplier >= 1; a zero or negative multiplier
// contributes nothing rather than failing.
func Delta(multiplier float64, first bool) float64 {
	if multiplier <= 0 {
		return 0
	}
	d := BaseUnit * multiplier
	if first {
		d *= FirstEncounterBonus
	}
	return d
}

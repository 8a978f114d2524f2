// Package units provides shared physical constants for field computations.
// All quantities are SI (2018 CODATA).
package units

const (
	// SpeedOfLight is c in m/s (exact).
	SpeedOfLight = 299792458.0

	// Epsilon0 is the vacuum permittivity in F/m.
	Epsilon0 = 8.8541878128e-12

	// Mu0 is the vacuum permeability in H/m.
	Mu0 = 1.25663706212e-6

	// ElementaryCharge is e in C.
	ElementaryCharge = 1.602176634e-19
)

package drivers

import "github.com/ukgov/org-registry/internal/source"

// RegisterAll constructs every driver this module ships and registers it
// into reg. Called once from cmd/aggregate at startup; kept separate from
// each driver's own file so the full roster is visible at a glance.
func RegisterAll(reg *source.Registry) {
	reg.Register(NewGovUKAPIDriver())
	reg.Register(NewPoliceUKAPIDriver())
	reg.Register(NewGIASDriver())
	reg.Register(NewNIEducationDriver())
	reg.Register(NewONSInstitutionalDriver())
	reg.Register(NewONSNonInstitutionalDriver())
	reg.Register(NewONSUnitaryDriver())
	reg.Register(NewDevolvedAdminStaticDriver())
	reg.Register(NewAOCDriver())
	reg.Register(NewCourtsDriver())

	for _, d := range NewHTMLGenericDrivers() {
		reg.Register(d)
	}
}

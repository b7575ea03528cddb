package reconcile

// Entity kinds handled by the import screens.
const (
	KindCity       = "city"
	KindUniversity = "university"
	KindCampus     = "campus"
	KindCourse     = "course"
	KindIntake     = "intake"
)

// Dependency kinds referenced by candidates.
const (
	DepCity           = "city"
	DepEducationLevel = "education_level"
	DepMajor          = "major"
)

// KindConfig describes how one entity kind maps onto the engine: which parent
// ids make up its scope tuple and which lookup kinds it depends on.
type KindConfig struct {
	Kind            string
	ScopeLabels     []string
	DependencyKinds []string
}

var kindConfigs = []KindConfig{
	{Kind: KindCity, ScopeLabels: []string{"country_id"}},
	{Kind: KindUniversity, ScopeLabels: []string{"country_id"}},
	{Kind: KindCampus, ScopeLabels: []string{"university_id", "country_id"}, DependencyKinds: []string{DepCity}},
	{Kind: KindCourse, ScopeLabels: []string{"campus_id"}, DependencyKinds: []string{DepEducationLevel, DepMajor}},
	{Kind: KindIntake, ScopeLabels: []string{"course_id"}},
}

// Kinds returns the configs for every supported entity kind.
func Kinds() []KindConfig {
	out := make([]KindConfig, len(kindConfigs))
	copy(out, kindConfigs)
	return out
}

// ConfigFor returns the config for the given entity kind.
func ConfigFor(kind string) (KindConfig, bool) {
	for _, cfg := range kindConfigs {
		if cfg.Kind == kind {
			return cfg, true
		}
	}
	return KindConfig{}, false
}

// IsKind reports whether kind names a supported entity kind.
func IsKind(kind string) bool {
	_, ok := ConfigFor(kind)
	return ok
}

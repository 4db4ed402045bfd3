package ports

// ConfigurationPort exposes the analysis configuration as raw option text
// per section. Values are JSON-compatible literals such as "[-10, 700000]".
// Absent options return an error wrapping core.ErrMissingConfigOption.
type ConfigurationPort interface {
	Get(section, option string) (string, error)
	Has(section, option string) bool
}

package config

type CatalogConfig interface {
	GetAllAccessURL() string
}

type Catalog struct {
	AllAccessURL string `yaml:"all_access_url" env:"PORTAL_ALL_ACCESS_URL" env-default:"https://kanakk365.github.io/zenomi-course/"`
}

var _ CatalogConfig = Catalog{}

// GetAllAccessURL is the single resource any paid plan unlocks.
func (c Catalog) GetAllAccessURL() string {
	return c.AllAccessURL
}

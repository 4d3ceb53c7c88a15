/*
Package config handles loading and saving chemsearch configuration.

Configuration is stored in ~/.chemsearch/config.json; the same directory
holds all writable state (lookup cache, filter results, blacklists).

Schema:

	{
	  "dataDir": "~/.chemsearch",
	  "dumpFile": "/path/to/pubchem_dump_cid_to_cas.tsv.gz",
	  "endpoints": {
	    "cts": "https://cts.fiehnlab.ucdavis.edu/rest/convert/CAS/PubChem%20CID",
	    "pug": "https://pubchem.ncbi.nlm.nih.gov/rest/pug",
	    "listGateway": "https://pubchem.ncbi.nlm.nih.gov/list_gateway/list_gateway.cgi",
	    "listRefinement": "https://pubchem.ncbi.nlm.nih.gov/list_gateway/list_refinement.cgi",
	    "sdq": "https://pubchem.ncbi.nlm.nih.gov/sdq/sphinxql.cgi"
	  },
	  "limits": {
	    "translationConcurrency": 10,
	    "compoundConcurrency": 5,
	    "compoundDelayMs": 200,
	    "repairDelayMs": 250
	  }
	}
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SearchURLPrefix is the public PubChem search UI; appending a cache key or a
// comma-separated CID list yields a shareable search URL.
const SearchURLPrefix = "https://pubchem.ncbi.nlm.nih.gov/#query="

// MaxDirectURLLength is the longest raw-CID search URL we hand to a browser.
// Longer lists are uploaded to the PubChem cache instead.
const MaxDirectURLLength = 8000

// Config represents the root configuration structure.
type Config struct {
	// DataDir is the writable directory for all persisted state.
	DataDir string `json:"dataDir,omitempty"`

	// DumpFile is the gzipped CID→CAS TSV dump used as the first lookup tier.
	DumpFile string `json:"dumpFile,omitempty"`

	// Endpoints contains the remote service URLs.
	Endpoints *Endpoints `json:"endpoints,omitempty"`

	// Limits contains client-side concurrency and pacing settings.
	Limits *Limits `json:"limits,omitempty"`

	// FirefoxProfilesDir overrides the platform default when set.
	FirefoxProfilesDir string `json:"firefoxProfilesDir,omitempty"`

	// ChromeLocalStorageDir overrides the platform default when set.
	ChromeLocalStorageDir string `json:"chromeLocalStorageDir,omitempty"`
}

// Endpoints contains the remote service URLs.
type Endpoints struct {
	// CTS is the Chemical Translation Service CAS→CID conversion endpoint.
	CTS string `json:"cts,omitempty"`

	// Pug is the PubChem PUG REST base URL.
	Pug string `json:"pug,omitempty"`

	// ListGateway is the PubChem cache upload endpoint.
	ListGateway string `json:"listGateway,omitempty"`

	// ListRefinement is the PubChem cache-key combination endpoint.
	ListRefinement string `json:"listRefinement,omitempty"`

	// SDQ is the PubChem endpoint used to dereference a cache key into CIDs.
	SDQ string `json:"sdq,omitempty"`
}

// Limits contains client-side concurrency and pacing settings. The defaults
// stay under PubChem's documented 5 requests/second limit.
type Limits struct {
	// TranslationConcurrency caps simultaneous CTS lookups.
	TranslationConcurrency int `json:"translationConcurrency,omitempty"`

	// CompoundConcurrency caps simultaneous PubChem compound-API requests.
	CompoundConcurrency int `json:"compoundConcurrency,omitempty"`

	// CompoundDelayMs is the fixed inter-request delay for compound lookups.
	CompoundDelayMs int `json:"compoundDelayMs,omitempty"`

	// RepairDelayMs is the fixed inter-request delay for name-search repairs.
	RepairDelayMs int `json:"repairDelayMs,omitempty"`
}

// Default returns a configuration with all defaults filled in.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".chemsearch")
	return &Config{
		DataDir:  dataDir,
		DumpFile: filepath.Join(dataDir, "pubchem_dump_cid_to_cas.tsv.gz"),
		Endpoints: &Endpoints{
			CTS:            "https://cts.fiehnlab.ucdavis.edu/rest/convert/CAS/PubChem%20CID",
			Pug:            "https://pubchem.ncbi.nlm.nih.gov/rest/pug",
			ListGateway:    "https://pubchem.ncbi.nlm.nih.gov/list_gateway/list_gateway.cgi",
			ListRefinement: "https://pubchem.ncbi.nlm.nih.gov/list_gateway/list_refinement.cgi",
			SDQ:            "https://pubchem.ncbi.nlm.nih.gov/sdq/sphinxql.cgi",
		},
		Limits: &Limits{
			TranslationConcurrency: 10,
			CompoundConcurrency:    5,
			CompoundDelayMs:        200,
			RepairDelayMs:          250,
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.chemsearch/config.json.
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".chemsearch", "config.json"), nil
}

// Load reads the configuration from the default path. A missing config file
// is not an error: the defaults are returned unchanged.
func Load() (*Config, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		if _, notFound := err.(*NotFoundError); notFound {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads the configuration from a specific path and merges it over
// the defaults, so a partial config file is valid.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidError{
			Path:    path,
			Message: fmt.Sprintf("JSON parse error: %v", err),
			Hint:    "Fix or delete the file; defaults apply when it is absent",
		}
	}
	fillDefaults(cfg)
	return cfg, nil
}

// Save writes the configuration to the default path, creating the data
// directory if needed.
func (c *Config) Save() error {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DataPath returns the path of a state file inside the data directory.
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// fillDefaults replaces zero-valued sections with defaults so a sparse
// config file cannot leave the client without endpoints or limits.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.DumpFile == "" {
		cfg.DumpFile = def.DumpFile
	}
	if cfg.Endpoints == nil {
		cfg.Endpoints = def.Endpoints
	} else {
		if cfg.Endpoints.CTS == "" {
			cfg.Endpoints.CTS = def.Endpoints.CTS
		}
		if cfg.Endpoints.Pug == "" {
			cfg.Endpoints.Pug = def.Endpoints.Pug
		}
		if cfg.Endpoints.ListGateway == "" {
			cfg.Endpoints.ListGateway = def.Endpoints.ListGateway
		}
		if cfg.Endpoints.ListRefinement == "" {
			cfg.Endpoints.ListRefinement = def.Endpoints.ListRefinement
		}
		if cfg.Endpoints.SDQ == "" {
			cfg.Endpoints.SDQ = def.Endpoints.SDQ
		}
	}
	if cfg.Limits == nil {
		cfg.Limits = def.Limits
	} else {
		if cfg.Limits.TranslationConcurrency <= 0 {
			cfg.Limits.TranslationConcurrency = def.Limits.TranslationConcurrency
		}
		if cfg.Limits.CompoundConcurrency <= 0 {
			cfg.Limits.CompoundConcurrency = def.Limits.CompoundConcurrency
		}
		if cfg.Limits.CompoundDelayMs <= 0 {
			cfg.Limits.CompoundDelayMs = def.Limits.CompoundDelayMs
		}
		if cfg.Limits.RepairDelayMs <= 0 {
			cfg.Limits.RepairDelayMs = def.Limits.RepairDelayMs
		}
	}
}

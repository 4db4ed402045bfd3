package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"gocuts/domain/core"
	"gocuts/ports"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Section and option names read by the cut generator.
const (
	SectionCut = "CUT"

	OptionEventRange = "event range"
	OptionJumpRange  = "exclude around jump"
	OptionChi2X      = "chi2X"
	OptionChi2Y      = "chi2Y"
	OptionSlope      = "slope"
)

// Analysis is the analysis configuration: sections of options holding raw
// JSON-compatible text. Environment variables named
// GOCUTS_<SECTION>_<OPTION> (upper case, spaces as underscores) override
// file values.
type Analysis struct {
	sections map[string]map[string]string
	lookup   func(string) (string, bool)
}

var _ ports.ConfigurationPort = (*Analysis)(nil)

// NewAnalysis builds a configuration from in-memory sections.
func NewAnalysis(sections map[string]map[string]string) *Analysis {
	a := &Analysis{sections: make(map[string]map[string]string), lookup: os.LookupEnv}
	for section, options := range sections {
		for option, value := range options {
			a.Set(section, option, value)
		}
	}
	return a
}

// LoadAnalysis reads a YAML analysis configuration file.
func LoadAnalysis(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis config %s: %w", path, err)
	}
	return ParseAnalysis(data)
}

// ParseAnalysis decodes YAML of the form section -> option -> value.
// Non-string values are stored as their JSON encoding.
func ParseAnalysis(data []byte) (*Analysis, error) {
	var raw map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse analysis config: %w", err)
	}

	a := NewAnalysis(nil)
	for section, options := range raw {
		for option, value := range options {
			text, err := encodeValue(value)
			if err != nil {
				return nil, fmt.Errorf("option [%s] %s: %w", section, option, err)
			}
			a.Set(section, option, text)
		}
	}
	return a, nil
}

// WithoutEnv disables environment overrides.
func (a *Analysis) WithoutEnv() *Analysis {
	a.lookup = func(string) (string, bool) { return "", false }
	return a
}

// Get returns the raw option text.
func (a *Analysis) Get(section, option string) (string, error) {
	if v, ok := a.lookup(envKey(section, option)); ok {
		return strings.TrimSpace(v), nil
	}
	if v, ok := a.sections[section][option]; ok {
		return v, nil
	}
	return "", core.NewMissingConfigOptionError(section, option)
}

// Has reports whether the option is set.
func (a *Analysis) Has(section, option string) bool {
	_, err := a.Get(section, option)
	return err == nil
}

// Set stores raw option text.
func (a *Analysis) Set(section, option, value string) {
	if a.sections[section] == nil {
		a.sections[section] = make(map[string]string)
	}
	a.sections[section][option] = strings.TrimSpace(value)
}

// GetFloat reads a numeric option.
func GetFloat(c ports.ConfigurationPort, section, option string) (float64, error) {
	raw, err := c.Get(section, option)
	if err != nil {
		return 0, err
	}
	res := gjson.Parse(raw)
	if !gjson.Valid(raw) || res.Type != gjson.Number {
		return 0, core.NewInvalidConfigValueError(section, option, raw)
	}
	return res.Float(), nil
}

// GetInt reads an integral option.
func GetInt(c ports.ConfigurationPort, section, option string) (int, error) {
	v, err := GetFloat(c, section, option)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		raw, _ := c.Get(section, option)
		return 0, core.NewInvalidConfigValueError(section, option, raw)
	}
	return int(v), nil
}

// GetFloatPair reads a two-element numeric list such as "[20, 20]".
func GetFloatPair(c ports.ConfigurationPort, section, option string) ([2]float64, error) {
	raw, err := c.Get(section, option)
	if err != nil {
		return [2]float64{}, err
	}
	items := gjson.Parse(raw).Array()
	if !gjson.Valid(raw) || len(items) != 2 || items[0].Type != gjson.Number || items[1].Type != gjson.Number {
		return [2]float64{}, core.NewInvalidConfigValueError(section, option, raw)
	}
	return [2]float64{items[0].Float(), items[1].Float()}, nil
}

// GetDUT reads the entry for one device under test from an option holding a
// JSON object keyed by device name, e.g. {"II6-B2": 80, "S129": 90}.
func GetDUT(c ports.ConfigurationPort, section, option, dut string) (gjson.Result, error) {
	raw, err := c.Get(section, option)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(raw) {
		return gjson.Result{}, core.NewInvalidConfigValueError(section, option, raw)
	}
	res := gjson.Get(raw, escapePath(dut))
	if !res.Exists() {
		return gjson.Result{}, core.NewMissingConfigOptionError(section, option+" for "+dut)
	}
	return res, nil
}

func encodeValue(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func envKey(section, option string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return "GOCUTS_" + strings.ToUpper(r.Replace(section)) + "_" + strings.ToUpper(r.Replace(option))
}

func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(key)
}

// dutView resolves options holding per-DUT objects to the entry of one DUT.
type dutView struct {
	base ports.ConfigurationPort
	dut  string
}

// ForDUT wraps c so that options given as a JSON object keyed by device name
// read as the entry for dut. Plain options pass through unchanged.
func ForDUT(c ports.ConfigurationPort, dut string) ports.ConfigurationPort {
	if dut == "" {
		return c
	}
	return dutView{base: c, dut: dut}
}

func (v dutView) Get(section, option string) (string, error) {
	raw, err := v.base.Get(section, option)
	if err != nil {
		return "", err
	}
	if !gjson.Parse(raw).IsObject() {
		return raw, nil
	}
	res, err := GetDUT(v.base, section, option, v.dut)
	if err != nil {
		return "", err
	}
	return res.Raw, nil
}

func (v dutView) Has(section, option string) bool {
	_, err := v.Get(section, option)
	return err == nil
}

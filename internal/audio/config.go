package audio

import "encoding/json"

// Processor type tags.
const (
	TypeSplice    = "splice"
	TypeNormalize = "normalize"
)

// Config is the closed set of processor configurations. The only
// implementations are SpliceConfig and NormalizeConfig.
type Config interface {
	// ProcessorType returns the tag of the processor that accepts the config.
	ProcessorType() string
	sealed()
}

// SpliceConfig configures random sub-clip extraction.
type SpliceConfig struct {
	// Duration of each clip in seconds.
	Duration float64 `json:"duration"`
	// Count is the number of clips to extract.
	Count int `json:"count"`
	// Reverse reverses the sample order of every clip.
	Reverse bool `json:"reverse"`
}

// ProcessorType implements Config.
func (SpliceConfig) ProcessorType() string { return TypeSplice }
func (SpliceConfig) sealed()               {}

// NormalizeConfig configures peak normalization.
type NormalizeConfig struct {
	// TargetLevel is the target peak in (0, 1], where 1.0 is full scale.
	TargetLevel float64 `json:"target_level"`
	// ApplyToSplices normalizes fixed random splices instead of the whole file.
	ApplyToSplices bool `json:"apply_to_splices"`
}

// ProcessorType implements Config.
func (NormalizeConfig) ProcessorType() string { return TypeNormalize }
func (NormalizeConfig) sealed()               {}

// ParseConfig decodes a JSON config tagged by its "type" field, e.g.
// {"type":"splice","duration":2,"count":3,"reverse":true}.
func ParseConfig(data []byte) (Config, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, configError("decode config: %v", err)
	}

	switch envelope.Type {
	case TypeSplice:
		var cfg SpliceConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, configError("decode splice config: %v", err)
		}
		return cfg, nil
	case TypeNormalize:
		var cfg NormalizeConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, configError("decode normalize config: %v", err)
		}
		return cfg, nil
	default:
		return nil, configError("unknown processor type %q", envelope.Type)
	}
}

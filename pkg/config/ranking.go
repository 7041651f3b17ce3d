package config

import (
	"errors"
	"os"
	"strings"

	"matchchat/internal/application"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadRanking layers the context ranking weights (low -> high):
//  1. built-in defaults
//  2. YAML file named by RANKING_CONFIG
//  3. RANKING_* env vars, e.g. RANKING_EVENT_TYPE=0.85
func LoadRanking() (application.RankingWeights, error) {
	weights := application.DefaultRanking()
	k := koanf.New(".")

	if path := os.Getenv("RANKING_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return weights, err
		}
	}

	envProvider := env.Provider("RANKING_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "ranking_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return weights, err
	}

	if err := k.UnmarshalWithConf("", &weights, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return weights, err
	}

	if weights.Decay < 0 {
		return weights, errors.New("ranking decay must not be negative")
	}
	return weights, nil
}

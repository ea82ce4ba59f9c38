// Package roulette — catalog.go хранит цены кейсов и таблицы распределения подарков.
// Каталог загружается один раз при старте и дальше не меняется.
package roulette

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"serotonyl.ru/gift-roulette/internal/common"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Threshold — накопительная граница: r < Bound выдаёт подарок GiftNumber.
type Threshold struct {
	Bound      int    `yaml:"bound"`
	GiftNumber string `yaml:"gift"`
}

// CaseType — кейс: цена и упорядоченная таблица границ.
type CaseType struct {
	Key         string      `yaml:"-"`
	Price       int64       `yaml:"price"`
	TotalWeight int         `yaml:"total_weight"`
	Rewards     []Threshold `yaml:"rewards"`
}

type catalogFile struct {
	Cases map[string]CaseType `yaml:"cases"`
}

// Catalog — неизменяемый набор кейсов. Безопасен для чтения из многих горутин.
type Catalog struct {
	cases map[string]CaseType
}

// LoadCatalog читает каталог из YAML-файла. Пустой путь — встроенный каталог.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать каталог %s: %w", path, err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

// ParseCatalog разбирает и проверяет YAML каталога.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("каталог пуст")
	}

	cases := make(map[string]CaseType, len(file.Cases))
	for key, c := range file.Cases {
		c.Key = key
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("кейс %q: %w", key, err)
		}
		cases[key] = c
	}
	return &Catalog{cases: cases}, nil
}

// validate проверяет, что границы строго возрастают и делят [0, TotalWeight) целиком.
func (c CaseType) validate() error {
	if c.Price <= 0 {
		return fmt.Errorf("цена должна быть > 0")
	}
	if c.TotalWeight <= 0 {
		return fmt.Errorf("total_weight должен быть > 0")
	}
	if len(c.Rewards) == 0 {
		return fmt.Errorf("нет подарков")
	}
	prev := 0
	for i, r := range c.Rewards {
		if r.GiftNumber == "" {
			return fmt.Errorf("подарок #%d без номера", i)
		}
		if r.Bound <= prev {
			return fmt.Errorf("граница #%d (%d) должна быть больше %d", i, r.Bound, prev)
		}
		prev = r.Bound
	}
	if prev != c.TotalWeight {
		return fmt.Errorf("последняя граница %d не равна total_weight %d", prev, c.TotalWeight)
	}
	return nil
}

func (c *Catalog) lookup(key string) (CaseType, error) {
	ct, ok := c.cases[key]
	if !ok {
		return CaseType{}, fmt.Errorf("%w: %q", common.ErrUnknownCase, key)
	}
	return ct, nil
}

// Price возвращает цену кейса в звёздах.
func (c *Catalog) Price(key string) (int64, error) {
	ct, err := c.lookup(key)
	if err != nil {
		return 0, err
	}
	return ct.Price, nil
}

// Distribution возвращает копию таблицы границ кейса и его общий вес.
func (c *Catalog) Distribution(key string) ([]Threshold, int, error) {
	ct, err := c.lookup(key)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Threshold, len(ct.Rewards))
	copy(out, ct.Rewards)
	return out, ct.TotalWeight, nil
}

// Keys возвращает ключи кейсов по алфавиту.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.cases))
	for k := range c.cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

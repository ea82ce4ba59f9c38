// Package roulette — selector.go выбирает подарок по таблице весов кейса.
package roulette

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sort"
	"sync"
)

// Selector тянет подарок из распределения кейса.
// ГСЧ не криптостойкий, но равномерный и пересеиваемый для детерминированных тестов.
// rand.Rand не потокобезопасен, поэтому доступ к нему под мьютексом.
type Selector struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector создаёт селектор с заданным зерном.
func NewSelector(catalog *Catalog, seed1, seed2 uint64) *Selector {
	return &Selector{
		catalog: catalog,
		rng:     rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// NewRandomSelector создаёт селектор, засеянный из crypto/rand.
func NewRandomSelector(catalog *Catalog) (*Selector, error) {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, err
	}
	return NewSelector(catalog,
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	), nil
}

// Reseed пересеивает генератор.
func (s *Selector) Reseed(seed1, seed2 uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewPCG(seed1, seed2))
}

// Draw возвращает номер подарка для кейса.
func (s *Selector) Draw(caseType string) (string, error) {
	ct, err := s.catalog.lookup(caseType)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	r := s.rng.IntN(ct.TotalWeight)
	s.mu.Unlock()

	return pick(ct.Rewards, r), nil
}

// pick возвращает подарок первой границы, для которой r < Bound.
// Границы возрастают, поэтому бинарный поиск даёт тот же результат, что и линейный проход.
func pick(rewards []Threshold, r int) string {
	idx := sort.Search(len(rewards), func(i int) bool {
		return r < rewards[i].Bound
	})
	if idx >= len(rewards) {
		// r вне [0, total) — не бывает при валидном каталоге
		return rewards[len(rewards)-1].GiftNumber
	}
	return rewards[idx].GiftNumber
}

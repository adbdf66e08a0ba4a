package bizapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rshade/bizcheck/internal/engine/cache"
	"github.com/rshade/bizcheck/internal/logging"
)

// Verification statuses.
const (
	StatusVerified    = "Verified"
	StatusNotVerified = "Not Verified"
)

const (
	operationQuery  = "query"
	operationVerify = "verify"
	matchFlag       = "1"
)

// BusinessLicense is the registry record of one company.
type BusinessLicense struct {
	Name                  string `json:"name"`
	RegNumber             string `json:"regNumber"`
	Status                string `json:"status"`
	Type                  string `json:"type"`
	LegalPerson           string `json:"legalPerson"`
	EstablishDate         string `json:"establishDate"`
	RegCapital            string `json:"regCapital"`
	Address               string `json:"address"`
	BusinessScope         string `json:"businessScope"`
	Province              string `json:"province"`
	City                  string `json:"city"`
	District              string `json:"district"`
	LicensedBusinessScope string `json:"licensedBusinessScope"`

	// Raw is the API response the record was built from.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Verification is the outcome of a two-factor check.
type Verification struct {
	Company   string `json:"company"`
	RegNum    string `json:"regnum"`
	Status    string `json:"status"`
	NameMatch bool   `json:"nameMatch"`
	CodeMatch bool   `json:"codeMatch"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// Verified reports whether the registry confirmed the pair.
func (v *Verification) Verified() bool {
	return v.Status == StatusVerified
}

// Lookup is the subset of Client used by Service.
type Lookup interface {
	QueryBusiness(ctx context.Context, name string) (*QueryResponse, error)
	VerifyBusiness(ctx context.Context, company, regnum string) (*VerifyResponse, error)
}

// Service maps API responses to domain records and caches successes.
type Service struct {
	api   Lookup
	store cache.Store
}

// NewService creates a service. store may be nil to disable caching.
func NewService(api Lookup, store cache.Store) *Service {
	return &Service{api: api, store: store}
}

// Query returns the license of a company.
func (s *Service) Query(ctx context.Context, name string) (*BusinessLicense, error) {
	var cached BusinessLicense
	key, hit := s.cached(ctx, operationQuery, &cached, name)
	if hit {
		return &cached, nil
	}

	resp, err := s.api.QueryBusiness(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if resp.WordsResult == nil {
		return nil, fmt.Errorf("query failed: %w", ErrNoResult)
	}

	w := resp.WordsResult
	license := &BusinessLicense{
		Name:                  w.CompanyName,
		RegNumber:             w.CompanyCode,
		Status:                w.CompanyStatus,
		Type:                  w.CompanyType,
		LegalPerson:           w.LegalPerson,
		EstablishDate:         w.EstablishDate,
		RegCapital:            w.Capital,
		Address:               w.CompanyAddress,
		BusinessScope:         w.BusinessScope,
		Province:              w.Province,
		City:                  w.City,
		District:              w.District,
		LicensedBusinessScope: w.LicensedBusinessScope,
		Raw:                   resp.Raw,
	}

	s.remember(ctx, key, license)
	return license, nil
}

// Verify checks that company and regnum belong together.
func (s *Service) Verify(ctx context.Context, company, regnum string) (*Verification, error) {
	var cached Verification
	key, hit := s.cached(ctx, operationVerify, &cached, company, regnum)
	if hit {
		return &cached, nil
	}

	resp, err := s.api.VerifyBusiness(ctx, company, regnum)
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	if resp.WordsResult == nil {
		return nil, fmt.Errorf("verification failed: %w", ErrNoResult)
	}

	status := StatusNotVerified
	if resp.WordsResult.VerifyResult == matchFlag {
		status = StatusVerified
	}
	v := &Verification{
		Company:   company,
		RegNum:    regnum,
		Status:    status,
		NameMatch: resp.WordsResult.CompanyMatch == matchFlag,
		CodeMatch: resp.WordsResult.RegNumMatch == matchFlag,
		Raw:       resp.Raw,
	}

	s.remember(ctx, key, v)
	return v, nil
}

// cached decodes a cache hit into dst. The returned key is "" when caching
// is unavailable.
func (s *Service) cached(ctx context.Context, operation string, dst any, inputs ...string) (string, bool) {
	if s.store == nil {
		return "", false
	}
	key, err := cache.GenerateKey(cache.KeyParams{Operation: operation, Inputs: inputs})
	if err != nil {
		return "", false
	}

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) {
			logging.FromContext(ctx).Debug().Ctx(ctx).Err(err).Msg("cache read failed")
		}
		return key, false
	}
	if entry.Decode(dst) != nil {
		return key, false
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "bizapi").
		Str("operation", operation).
		Dur("age", entry.Age()).
		Msg("cache hit")
	return key, true
}

func (s *Service) remember(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, data); err != nil && !cache.IsMiss(err) {
		logging.FromContext(ctx).Debug().Ctx(ctx).Err(err).Msg("cache write failed")
	}
}

package anaf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sondaj/internal/domain"
	"sondaj/internal/ports"
)

// Client resolves a CUI against the ANAF VAT-payer registry, falling back to
// openapi.ro when ANAF has no hit. Lookups key on the cleaned numeric CUI;
// "company not in registry" maps to ports.ErrNotFound, transport and status
// failures surface as ordinary errors so callers can tell the two apart.

const (
	defaultBaseURL     = "https://webservicesp.anaf.ro/PlatitorTvaRest/api/v8/ws/tva"
	defaultFallbackURL = "https://api.openapi.ro/api/companies"
)

type Client struct {
	baseURL     string
	fallbackURL string
	fallbackKey string
	httpClient  *http.Client
}

func NewClient(baseURL, fallbackURL, fallbackKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if fallbackURL == "" {
		fallbackURL = defaultFallbackURL
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxConnsPerHost:     5,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:     baseURL,
		fallbackURL: fallbackURL,
		fallbackKey: fallbackKey,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type anafCompany struct {
	Denumire string `json:"denumire"`
	Adresa   string `json:"adresa"`
	CodCaen  string `json:"codCaen"`
}

type anafResponse struct {
	Found []anafCompany `json:"found"`
}

type fallbackCompany struct {
	Denumire   string `json:"denumire"`
	Name       string `json:"name"`
	Adresa     string `json:"adresa"`
	Address    string `json:"address"`
	Localitate string `json:"localitate"`
	City       string `json:"city"`
	Judet      string `json:"judet"`
	County     string `json:"county"`
	CodCaen    string `json:"cod_caen"`
	Caen       string `json:"caen"`
}

// LookupCUI queries ANAF first, then the fallback registry. cui must
// already be cleaned to digits only.
func (c *Client) LookupCUI(ctx context.Context, cui string) (domain.CompanyRecord, error) {
	if cui == "" {
		return domain.CompanyRecord{}, fmt.Errorf("empty cui")
	}

	rec, err := c.lookupANAF(ctx, cui)
	if err == nil {
		return rec, nil
	}
	if rec, fbErr := c.lookupFallback(ctx, cui); fbErr == nil {
		return rec, nil
	}
	// Keep the primary registry's verdict; the fallback is best effort.
	return domain.CompanyRecord{}, err
}

func (c *Client) lookupANAF(ctx context.Context, cui string) (domain.CompanyRecord, error) {
	body, err := json.Marshal([]map[string]string{{"cui": cui}})
	if err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("anaf request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.CompanyRecord{}, fmt.Errorf("anaf returned status %d", resp.StatusCode)
	}

	var decoded anafResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("anaf decode failed: %w", err)
	}
	if len(decoded.Found) == 0 || decoded.Found[0].Denumire == "" {
		return domain.CompanyRecord{}, ports.ErrNotFound
	}

	company := decoded.Found[0]
	return domain.CompanyRecord{
		CUI:      cui,
		Name:     company.Denumire,
		Address:  company.Adresa,
		Locality: extractLocality(company.Adresa),
		County:   extractCounty(company.Adresa),
		CAENCode: company.CodCaen,
	}, nil
}

func (c *Client) lookupFallback(ctx context.Context, cui string) (domain.CompanyRecord, error) {
	url := fmt.Sprintf("%s/%s", c.fallbackURL, cui)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.fallbackKey != "" {
		req.Header.Set("x-api-key", c.fallbackKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("fallback request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.CompanyRecord{}, ports.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.CompanyRecord{}, fmt.Errorf("fallback returned status %d", resp.StatusCode)
	}

	var company fallbackCompany
	if err := json.NewDecoder(resp.Body).Decode(&company); err != nil {
		return domain.CompanyRecord{}, fmt.Errorf("fallback decode failed: %w", err)
	}
	name := coalesce(company.Denumire, company.Name)
	if name == "" {
		return domain.CompanyRecord{}, ports.ErrNotFound
	}
	return domain.CompanyRecord{
		CUI:      cui,
		Name:     name,
		Address:  coalesce(company.Adresa, company.Address),
		Locality: coalesce(company.Localitate, company.City),
		County:   coalesce(company.Judet, company.County),
		CAENCode: coalesce(company.CodCaen, company.Caen),
	}, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Registry addresses come back as one comma-separated line; pull the
// locality and county out of their labeled segments.

func extractLocality(address string) string {
	parts := strings.Split(address, ",")
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		lower := strings.ToLower(trimmed)
		for _, prefix := range []string{"oras ", "municipiul ", "comuna "} {
			if strings.HasPrefix(lower, prefix) {
				return strings.TrimSpace(trimmed[len(prefix):])
			}
		}
	}
	if len(parts) > 0 {
		return strings.TrimSpace(parts[0])
	}
	return ""
}

func extractCounty(address string) string {
	parts := strings.Split(address, ",")
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		lower := strings.ToLower(trimmed)
		for _, prefix := range []string{"judet ", "jud. "} {
			if strings.HasPrefix(lower, prefix) {
				return strings.TrimSpace(trimmed[len(prefix):])
			}
		}
	}
	if len(parts) > 0 {
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return ""
}

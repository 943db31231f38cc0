package pubchem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"skincare-ingredients/internal/infrastructure/config"
)

const propertyList = "MolecularWeight,MolecularFormula,IUPACName,XLogP,CanonicalSMILES"

var (
	// ErrNotFound PubChem 查無此名稱
	ErrNotFound = errors.New("pubchem: compound not found")
	// ErrThrottled PubChem 回傳 429 或 503（ServerBusy）
	ErrThrottled = errors.New("pubchem: throttled")
	// ErrMalformed 回應缺少 CID 或分子量
	ErrMalformed = errors.New("pubchem: malformed response")
	// ErrUpstream 其他非 2xx 回應
	ErrUpstream = errors.New("pubchem: upstream error")
)

// Compound 化學識別結果
type Compound struct {
	CID             int64
	MolecularWeight float64
	Properties      map[string]any
}

type propertyTableResponse struct {
	PropertyTable struct {
		Properties []json.RawMessage `json:"Properties"`
	} `json:"PropertyTable"`
}

type propertyRow struct {
	CID             int64     `json:"CID"`
	MolecularWeight flexFloat `json:"MolecularWeight"`
}

type faultResponse struct {
	Fault struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Fault"`
}

// flexFloat 接受 JSON 數字或數字字串
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("molecular weight %q: %w", s, err)
		}
		f.Value, f.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value, f.Set = v, true
	return nil
}

// Client PubChem PUG REST 客戶端
type Client struct {
	http *resty.Client
}

// NewClient 創建 PubChem 客戶端
func NewClient(cfg config.PubChemConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: client}
}

// Lookup 以名稱查詢化合物，取第一筆屬性資料
func (c *Client) Lookup(ctx context.Context, name string) (*Compound, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("name", name).
		Get("/compound/name/{name}/property/" + propertyList + "/JSON")
	if err != nil {
		return nil, fmt.Errorf("pubchem request failed: %w", err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusNotFound:
		return nil, ErrNotFound
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w (status %d)", ErrThrottled, status)
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, status, faultMessage(resp.Body()))
	}

	return decodeCompound(resp.Body())
}

func decodeCompound(body []byte) (*Compound, error) {
	var table propertyTableResponse
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(table.PropertyTable.Properties) == 0 {
		return nil, fmt.Errorf("%w: no property rows", ErrMalformed)
	}

	first := table.PropertyTable.Properties[0]
	var row propertyRow
	if err := json.Unmarshal(first, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if row.CID <= 0 {
		return nil, fmt.Errorf("%w: missing CID", ErrMalformed)
	}
	if !row.MolecularWeight.Set {
		return nil, fmt.Errorf("%w: missing molecular weight", ErrMalformed)
	}

	props := map[string]any{}
	if err := json.Unmarshal(first, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &Compound{
		CID:             row.CID,
		MolecularWeight: row.MolecularWeight.Value,
		Properties:      props,
	}, nil
}

func faultMessage(body []byte) string {
	var fault faultResponse
	if err := json.Unmarshal(body, &fault); err == nil && fault.Fault.Code != "" {
		return fault.Fault.Code + ": " + fault.Fault.Message
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

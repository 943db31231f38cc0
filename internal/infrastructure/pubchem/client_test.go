package pubchem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare-ingredients/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.PubChemConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestLookup(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"PropertyTable":{"Properties":[
			{"CID":936,"MolecularFormula":"C6H6N2O","MolecularWeight":"122.12","IUPACName":"pyridine-3-carboxamide","XLogP":-0.4},
			{"CID":1,"MolecularWeight":1}
		]}}`))
	})

	got, err := c.Lookup(context.Background(), "niacinamide")
	require.NoError(t, err)

	assert.Equal(t, "/compound/name/niacinamide/property/"+propertyList+"/JSON", gotPath)
	assert.Equal(t, int64(936), got.CID)
	assert.InDelta(t, 122.12, got.MolecularWeight, 1e-9)
	assert.Equal(t, "C6H6N2O", got.Properties["MolecularFormula"])
	assert.Equal(t, "122.12", got.Properties["MolecularWeight"])
}

func TestLookupEscapesName(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"PropertyTable":{"Properties":[{"CID":5,"MolecularWeight":10.5}]}}`))
	})

	got, err := c.Lookup(context.Background(), "ascorbic acid")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/compound/name/ascorbic%20acid/")
	assert.InDelta(t, 10.5, got.MolecularWeight, 1e-9)
}

func TestLookupErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"Fault":{"Code":"PUGREST.NotFound","Message":"No CID found"}}`, ErrNotFound},
		{"throttled", http.StatusTooManyRequests, ``, ErrThrottled},
		{"server busy", http.StatusServiceUnavailable, `{"Fault":{"Code":"PUGREST.ServerBusy"}}`, ErrThrottled},
		{"upstream", http.StatusInternalServerError, `oops`, ErrUpstream},
		{"no rows", http.StatusOK, `{"PropertyTable":{"Properties":[]}}`, ErrMalformed},
		{"missing cid", http.StatusOK, `{"PropertyTable":{"Properties":[{"MolecularWeight":"18.015"}]}}`, ErrMalformed},
		{"missing weight", http.StatusOK, `{"PropertyTable":{"Properties":[{"CID":962}]}}`, ErrMalformed},
		{"bad weight", http.StatusOK, `{"PropertyTable":{"Properties":[{"CID":962,"MolecularWeight":"heavy"}]}}`, ErrMalformed},
		{"not json", http.StatusOK, `<html>`, ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Lookup(context.Background(), "water")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLookupContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Lookup(ctx, "water")
	assert.Error(t, err)
}

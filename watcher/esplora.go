package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EsploraSource lists address UTXOs from an Esplora-compatible HTTP API
// (mempool.space, blockstream.info).
type EsploraSource struct {
	baseURL string
	client  *http.Client
}

func NewEsploraSource(baseURL string) *EsploraSource {
	return &EsploraSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type esploraUTXO struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Status struct {
		Confirmed bool `json:"confirmed"`
	} `json:"status"`
}

func (s *EsploraSource) ListUnspent(ctx context.Context, address string) ([]UTXO, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", s.baseURL, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("utxo endpoint returned status %d", resp.StatusCode)
	}

	var raw []esploraUTXO
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	utxos := make([]UTXO, 0, len(raw))
	for _, u := range raw {
		utxos = append(utxos, UTXO{
			TxID:      u.TxID,
			Vout:      u.Vout,
			ValueSats: u.Value,
			Confirmed: u.Status.Confirmed,
		})
	}
	return utxos, nil
}

// Package searchindex mirrors the catalog into Elasticsearch. The mirror is
// fed by product events and is never the source of truth: the key-value
// store is.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/localshop/internal/events"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/pkg/logging"
)

const DefaultIndex = "products"

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Mirror struct {
	ES    *elasticsearch.Client
	Index string
}

// NewClient connects and checks the cluster answers.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("svc", "searchindex")

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	l.Info("elasticsearch_connected", "url", cfg.URL)
	return client, nil
}

func New(es *elasticsearch.Client, index string) *Mirror {
	if index == "" {
		index = DefaultIndex
	}
	return &Mirror{ES: es, Index: index}
}

// Publish applies product events to the index and ignores the rest.
func (m *Mirror) Publish(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.ProductCreated, events.ProductUpdated, events.ProductStatusToggled, events.ProductStockChanged:
		if e.Product == nil {
			return nil
		}
		return m.Put(ctx, *e.Product)
	case events.ProductDeleted:
		return m.Remove(ctx, e.ProductID)
	}
	return nil
}

func (m *Mirror) Close() error { return nil }

func (m *Mirror) Put(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := m.ES.Index(m.Index, bytes.NewReader(body),
		m.ES.Index.WithContext(ctx),
		m.ES.Index.WithDocumentID(strconv.Itoa(p.ID)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

// Remove deletes the document. A document that is already gone is fine.
func (m *Mirror) Remove(ctx context.Context, id int) error {
	res, err := m.ES.Delete(m.Index, strconv.Itoa(id), m.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product %d: %s", id, res.Status())
	}
	return nil
}

// Reindex writes every product. It stops at the first failure.
func (m *Mirror) Reindex(ctx context.Context, products []models.Product) error {
	l := logging.FromContext(ctx).With("svc", "searchindex")
	for i := range products {
		if err := m.Put(ctx, products[i]); err != nil {
			l.Error("reindex_failed", "product_id", products[i].ID, "error", err)
			return err
		}
	}
	l.Info("reindexed", "index", m.Index, "count", len(products))
	return nil
}

type Results struct {
	Total int64            `json:"total"`
	Items []models.Product `json:"data"`
}

// Search runs a fuzzy full-text match over active products.
func (m *Mirror) Search(ctx context.Context, query string, from, size int) (Results, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"name^2", "description", "brand", "category", "tags", "sku"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"status": string(models.ProductActive)},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Results{}, err
	}

	res, err := m.ES.Search(
		m.ES.Search.WithContext(ctx),
		m.ES.Search.WithIndex(m.Index),
		m.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Results{}, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Results{}, err
	}

	out := Results{Total: r.Hits.Total.Value, Items: make([]models.Product, len(r.Hits.Hits))}
	for i, hit := range r.Hits.Hits {
		out.Items[i] = hit.Source
	}
	return out, nil
}

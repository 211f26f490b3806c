package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/designsafe-ci/portal-data/data"
	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	scanPageSize  = 500
	scrollTimeout = time.Minute
)

// ElasticBackend stores objects in one Elasticsearch index.
type ElasticBackend struct {
	client *elasticsearch.Client
	index  string
	log    *logger.Logger
}

// NewElasticBackend connects to the configured cluster. Client-level retries are
// off: Store applies the one-shot retry policy itself.
func NewElasticBackend(cfg config.ElasticConfig, log *logger.Logger) (*ElasticBackend, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:             cfg.Hosts,
		Username:              cfg.Username,
		Password:              cfg.Password,
		DiscoverNodesOnStart:  cfg.SniffOnStart,
		DiscoverNodesInterval: cfg.SniffInterval,
		DisableRetry:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticBackend{
		client: client,
		index:  cfg.DefaultIndex,
		log:    log.With("service", "ElasticBackend", "index", cfg.DefaultIndex),
	}, nil
}

type hit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

// checkResponse turns transport failures and error statuses into TransportError.
func checkResponse(res *esapi.Response, err error) error {
	if err != nil {
		return &TransportError{Err: err}
	}
	if res.IsError() {
		info, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		res.Body.Close()
		return &TransportError{Status: res.StatusCode, Info: strings.TrimSpace(string(info))}
	}
	return nil
}

func decodeHits(r io.Reader) (*searchResponse, []*Object, error) {
	var sr searchResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return nil, nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]*Object, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		o := &Object{}
		if err := json.Unmarshal(h.Source, o); err != nil {
			return nil, nil, fmt.Errorf("decode document %s: %w", h.ID, err)
		}
		o.ID = h.ID
		out = append(out, o)
	}
	return &sr, out, nil
}

func queryBody(q Query) (io.Reader, error) {
	raw, err := json.Marshal(Body(q))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

func (b *ElasticBackend) Search(ctx context.Context, q Query, from, size int) ([]*Object, int64, error) {
	body, err := queryBody(q)
	if err != nil {
		return nil, 0, err
	}
	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(b.index),
		b.client.Search.WithBody(body),
		b.client.Search.WithFrom(from),
		b.client.Search.WithSize(size),
	)
	if err := checkResponse(res, err); err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	sr, objs, err := decodeHits(res.Body)
	if err != nil {
		return nil, 0, err
	}
	return objs, sr.Hits.Total.Value, nil
}

func (b *ElasticBackend) Scan(ctx context.Context, q Query) ([]*Object, error) {
	body, err := queryBody(q)
	if err != nil {
		return nil, err
	}
	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(b.index),
		b.client.Search.WithBody(body),
		b.client.Search.WithSize(scanPageSize),
		b.client.Search.WithScroll(scrollTimeout),
	)
	if err := checkResponse(res, err); err != nil {
		return nil, err
	}

	var all []*Object
	scrollID := ""
	defer func() {
		if scrollID == "" {
			return
		}
		cres, err := b.client.ClearScroll(b.client.ClearScroll.WithScrollID(scrollID))
		if err != nil {
			b.log.Warn("clear scroll failed", "error", err)
			return
		}
		cres.Body.Close()
	}()

	for {
		sr, objs, err := decodeHits(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}
		scrollID = sr.ScrollID
		all = append(all, objs...)
		if len(objs) == 0 || scrollID == "" {
			return all, nil
		}
		res, err = b.client.Scroll(
			b.client.Scroll.WithContext(ctx),
			b.client.Scroll.WithScrollID(scrollID),
			b.client.Scroll.WithScroll(scrollTimeout),
		)
		if err := checkResponse(res, err); err != nil {
			return nil, err
		}
	}
}

func (b *ElasticBackend) Save(ctx context.Context, o *Object) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	res, err := b.client.Index(b.index, bytes.NewReader(raw),
		b.client.Index.WithContext(ctx),
		b.client.Index.WithDocumentID(o.ID),
		b.client.Index.WithRefresh("wait_for"),
	)
	if err := checkResponse(res, err); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

func (b *ElasticBackend) Delete(ctx context.Context, id string) error {
	res, err := b.client.Delete(b.index, id,
		b.client.Delete.WithContext(ctx),
		b.client.Delete.WithRefresh("wait_for"),
	)
	if err := checkResponse(res, err); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

// EnsureIndex creates the index with the files mapping when it is missing.
func (b *ElasticBackend) EnsureIndex(ctx context.Context) error {
	res, err := b.client.Indices.Exists([]string{b.index}, b.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return &TransportError{Err: err}
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return &TransportError{Status: res.StatusCode, Info: "index exists check"}
	}

	res, err = b.client.Indices.Create(b.index,
		b.client.Indices.Create.WithContext(ctx),
		b.client.Indices.Create.WithBody(strings.NewReader(data.ObjectsIndex)),
	)
	if err := checkResponse(res, err); err != nil {
		return err
	}
	res.Body.Close()
	b.log.Info("created index")
	return nil
}

func (b *ElasticBackend) Ping(ctx context.Context) error {
	res, err := b.client.Ping(b.client.Ping.WithContext(ctx))
	if err := checkResponse(res, err); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

package helpers

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// NewESClient creates an Elasticsearch client with sane defaults and optional basic auth.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

type SearchHit struct {
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

// ESIndex indexes and searches documents of a single index. Calls go through
// a circuit breaker: after four consecutive failures the index fails fast with
// gobreaker.ErrOpenState for breakerTimeout, and callers use their fallback.
type ESIndex struct {
	Client  *elasticsearch.Client
	Index   string
	Timeout time.Duration

	breaker *gobreaker.CircuitBreaker
}

const breakerTimeout = 30 * time.Second

func NewESIndex(client *elasticsearch.Client, index string, logger *logrus.Logger) *ESIndex {
	return &ESIndex{
		Client:  client,
		Index:   index,
		Timeout: 3 * time.Second,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "es:" + index,
			MaxRequests: 1,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if logger != nil {
					logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
				}
			},
		}),
	}
}

func (x *ESIndex) guard(fn func() error) error {
	_, err := x.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (x *ESIndex) Put(ctx context.Context, id string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return x.guard(func() error {
		c, cancel := context.WithTimeout(ctx, x.Timeout)
		defer cancel()
		req := esapi.IndexRequest{Index: x.Index, DocumentID: id, Body: bytes.NewReader(b), Refresh: "false"}
		res, err := req.Do(c, x.Client)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()
		if res.IsError() {
			return fmt.Errorf("es index %s/%s: %s", x.Index, id, res.Status())
		}
		return nil
	})
}

func (x *ESIndex) Remove(ctx context.Context, id string) error {
	return x.guard(func() error {
		c, cancel := context.WithTimeout(ctx, x.Timeout)
		defer cancel()
		req := esapi.DeleteRequest{Index: x.Index, DocumentID: id}
		res, err := req.Do(c, x.Client)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()
		if res.IsError() && res.StatusCode != http.StatusNotFound {
			return fmt.Errorf("es delete %s/%s: %s", x.Index, id, res.Status())
		}
		return nil
	})
}

// Search runs a raw query body and returns the hits in score order.
func (x *ESIndex) Search(ctx context.Context, query map[string]any) ([]SearchHit, error) {
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Hits struct {
			Hits []SearchHit `json:"hits"`
		} `json:"hits"`
	}
	err = x.guard(func() error {
		c, cancel := context.WithTimeout(ctx, x.Timeout)
		defer cancel()
		res, err := x.Client.Search(
			x.Client.Search.WithContext(c),
			x.Client.Search.WithIndex(x.Index),
			x.Client.Search.WithBody(bytes.NewReader(b)),
		)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()
		if res.IsError() {
			return fmt.Errorf("es search %s: %s", x.Index, res.Status())
		}
		return json.NewDecoder(res.Body).Decode(&parsed)
	})
	if err != nil {
		return nil, err
	}
	return parsed.Hits.Hits, nil
}

package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akinalp/hanek/pkg/cache"
)

// Label, classifier'ın bir içerik parçasına verdiği etikettir.
type Label string

const (
	LabelClean     Label = "clean"
	LabelViolation Label = "violation"
)

// IsViolation, etiketin moderasyon ihlali olup olmadığını döner.
func (l Label) IsViolation() bool {
	return l == LabelViolation
}

// Classifier, içerik sınıflandırma kontratıdır.
//
// Classify, girdi listesiyle aynı uzunlukta ve aynı sırada etiket listesi
// döner. Uzak servis yavaş olabilir — caller ctx ile timeout vermelidir.
// Hata durumunda session loop içeriği NE temiz NE ihlal sayar; operasyon
// başarısız olur ve bağlantı internal-error ile kapanır.
type Classifier interface {
	Classify(ctx context.Context, contents []string) ([]Label, error)
}

// ─── HTTP Classifier ───

// classifyRequest / classifyResponse, uzak classifier'ın wire formatı.
type classifyRequest struct {
	Inputs []string `json:"inputs"`
}

type classifyResponse struct {
	Results []struct {
		Label string `json:"label"`
	} `json:"results"`
}

// HTTPClassifier, uzak classifier servisine batch istek atan Classifier
// implementasyonu. POST {url} ile {"inputs": [...]} gönderir,
// {"results": [{"label": "..."}]} bekler.
type HTTPClassifier struct {
	client *http.Client
	url    string
	apiKey string
}

// NewHTTPClassifier, yeni bir HTTP classifier client'ı oluşturur.
// apiKey boş değilse Authorization: Bearer header'ı eklenir.
func NewHTTPClassifier(url, apiKey string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		client: &http.Client{Timeout: timeout},
		url:    url,
		apiKey: apiKey,
	}
}

// Classify, içerik listesini uzak servise gönderir ve etiketleri döner.
func (c *HTTPClassifier) Classify(ctx context.Context, contents []string) ([]Label, error) {
	body, err := json.Marshal(classifyRequest{Inputs: contents})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Body'yi sınırlı oku — hata mesajı log'lanabilir olsun ama
		// devasa bir response belleği şişirmesin.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, msg)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}

	if len(parsed.Results) != len(contents) {
		return nil, fmt.Errorf("classifier returned %d results for %d inputs", len(parsed.Results), len(contents))
	}

	labels := make([]Label, len(parsed.Results))
	for i, r := range parsed.Results {
		if Label(r.Label) == LabelViolation {
			labels[i] = LabelViolation
		} else {
			labels[i] = LabelClean
		}
	}

	return labels, nil
}

// ─── Cached Classifier ───

// CachedClassifier, bir Classifier'ı içerik-bazlı TTL cache ile sarar.
//
// Aynı içerik kısa aralıkla tekrar gönderildiğinde (spam, copy-paste)
// uzak servise gitmek yerine cache'ten okunur. Cache key içeriğin kendisidir;
// etiketler deterministiktir, TTL sadece bellek büyümesini sınırlar.
type CachedClassifier struct {
	inner  Classifier
	labels *cache.TTLCache[string, Label]
}

// NewCachedClassifier, inner classifier'ı TTL cache ile sarar.
func NewCachedClassifier(inner Classifier, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{
		inner:  inner,
		labels: cache.New[string, Label](ttl, time.Minute),
	}
}

// Classify, cache'te olmayan içerikleri tek batch halinde inner'a gönderir,
// sonuçları cache'e yazar ve girdi sırasını koruyarak döner.
func (c *CachedClassifier) Classify(ctx context.Context, contents []string) ([]Label, error) {
	labels := make([]Label, len(contents))

	var missed []string
	var missedIdx []int
	for i, content := range contents {
		if label, ok := c.labels.Get(content); ok {
			labels[i] = label
			continue
		}
		missed = append(missed, content)
		missedIdx = append(missedIdx, i)
	}

	if len(missed) == 0 {
		return labels, nil
	}

	fresh, err := c.inner.Classify(ctx, missed)
	if err != nil {
		return nil, err
	}

	for j, label := range fresh {
		labels[missedIdx[j]] = label
		c.labels.Set(missed[j], label)
	}

	return labels, nil
}

// Close, altta yatan cache'in temizleme goroutine'ini durdurur.
func (c *CachedClassifier) Close() {
	c.labels.Close()
}

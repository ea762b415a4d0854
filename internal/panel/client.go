package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"go.uber.org/zap"
)

// Surface выбирает уровень привилегий панельного API и, соответственно, ключ.
type Surface string

const (
	// SurfaceApplication — административная поверхность /api/application (elevated key)
	SurfaceApplication Surface = "application"
	// SurfaceClient — операторская поверхность /api/client (client key)
	SurfaceClient Surface = "client"
)

// Response — нормализованный ответ панели.
// 204 кодируется явным флагом NoContent, а не пустой мапой.
type Response struct {
	Status    int
	NoContent bool
	Data      map[string]interface{}
}

// Client — единый обертка запрос/ответ над двумя REST-поверхностями Pterodactyl.
// Статичен между вызовами: одно http.Client, никакого состояния, никаких ретраев —
// каждый вызов ровно одна попытка (at-most-once), политика повторов не его забота.
type Client struct {
	panels map[string]infra.PanelConfig
	http   *http.Client
	logger *zap.Logger
}

func NewClient(panels map[string]infra.PanelConfig, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		panels: panels,
		http:   &http.Client{Timeout: timeout},
		logger: logger.Named("panel"),
	}
}

// Call выполняет один запрос к панели scope на выбранной поверхности.
// body == nil означает запрос без тела.
func (c *Client) Call(ctx context.Context, scope string, surface Surface, path, method string, body interface{}) (*Response, error) {
	// 1. Резолвим scope. Неизвестное имя — мгновенный отказ, без дефолтов.
	p, ok := c.panels[scope]
	if !ok {
		return nil, fmt.Errorf("scope %q: %w", scope, domain.ErrScopeNotFound)
	}

	// 2. Выбираем ключ под поверхность. Нет ключа — сетевой вызов не делаем вовсе.
	var apiKey string
	switch surface {
	case SurfaceApplication:
		apiKey = p.ApplicationKey
	case SurfaceClient:
		apiKey = p.ClientKey
	default:
		return nil, fmt.Errorf("unknown panel surface %q", surface)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("scope %q surface %q: %w", scope, surface, domain.ErrMissingCredential)
	}

	url := strings.TrimSuffix(p.URL, "/") + "/api/" + string(surface) + path

	// 3. Готовим тело
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("panel: failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("panel: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// 4. Ровно одна попытка
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("panel call failed: %w", err)
	}
	defer resp.Body.Close()

	// 5. Конвенция платформы: 204 — это sentinel, а не пустой объект
	if resp.StatusCode == http.StatusNoContent {
		return &Response{Status: resp.StatusCode, NoContent: true}, nil
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		// Нечитаемое тело — восстановимая, репортуемая ситуация, не падение процесса.
		// Несем статус-код до пользователя и аудита.
		c.logger.Warn("malformed panel response",
			zap.String("scope", scope),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &domain.MalformedResponseError{Status: resp.StatusCode}
	}

	return &Response{Status: resp.StatusCode, Data: data}, nil
}

// Summary — короткое человекочитаемое представление ответа для embed'ов и журнала.
func (r *Response) Summary() string {
	if r == nil {
		return "<nil>"
	}
	if r.NoContent {
		return fmt.Sprintf("status %d (no content)", r.Status)
	}
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Sprintf("status %d", r.Status)
	}
	s := string(raw)
	if len(s) > 900 {
		s = s[:900] + "…"
	}
	return s
}

// AttributeString достает строковый атрибут из стандартной обертки Pterodactyl
// {"attributes": {...}} либо {"object": ..., "attributes": {...}}.
func (r *Response) AttributeString(key string) string {
	if r == nil || r.Data == nil {
		return ""
	}
	attrs, ok := r.Data["attributes"].(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := attrs[key].(string)
	return v
}

// Subuser — один subuser инстанса в ответе /servers/{id}/users.
type Subuser struct {
	Email string
	UUID  string
}

// Subusers разбирает список {"data": [{"attributes": {"email", "uuid"}}]}.
// Непредвиденные формы молча дают пустой список: ответ уже прошел JSON-декодер.
func (r *Response) Subusers() []Subuser {
	if r == nil || r.Data == nil {
		return nil
	}
	items, ok := r.Data["data"].([]interface{})
	if !ok {
		return nil
	}
	subs := make([]Subuser, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		attrs, ok := m["attributes"].(map[string]interface{})
		if !ok {
			continue
		}
		var s Subuser
		s.Email, _ = attrs["email"].(string)
		s.UUID, _ = attrs["uuid"].(string)
		subs = append(subs, s)
	}
	return subs
}

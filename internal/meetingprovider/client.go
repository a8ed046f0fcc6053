// Package meetingprovider содержит HTTP-клиент внешнего сервиса видеовстреч.
// Вызов ограничен таймаутом из конфига: бронирование не должно висеть
// на недоступном провайдере, у оркестратора есть запасная ссылка.
package meetingprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client клиент API видеовстреч.
type Client struct {
	apiURL     string
	apiToken   string
	httpClient *http.Client
}

// NewClient создаёт новый клиент провайдера встреч.
func NewClient(apiURL, apiToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     apiURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateMeeting отправляет запрос на создание встречи и возвращает ссылку для подключения.
func (c *Client) CreateMeeting(ctx context.Context, reqParams CreateMeetingRequest) (*CreateMeetingResponse, error) {
	req, err := c.newRequest(ctx, "POST", "/meetings", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var meetingResp CreateMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&meetingResp); err != nil {
		return nil, err
	}
	return &meetingResp, nil
}

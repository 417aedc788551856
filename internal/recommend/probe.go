package recommend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/tunescout/internal/domain"
)

const probeTimeout = 10 * time.Second

// rootInfo is the service's GET / response
type rootInfo struct {
	Message string `json:"message"`
}

// Probe checks that serverURL answers like the recommendation service and
// returns its greeting.
func Probe(ctx context.Context, serverURL string) (string, error) {
	serverURL = strings.TrimRight(serverURL, "/")

	client := &http.Client{
		Timeout: probeTimeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrServiceOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseServiceError(resp.StatusCode, body)
	}

	var info rootInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("not a recommendation service: %w", err)
	}
	if info.Message == "" {
		return "", fmt.Errorf("not a recommendation service: no greeting")
	}

	return info.Message, nil
}

package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrRateLimited is returned for HTTP 429 and for the "Note" and
	// "Information" payloads the API sends once the quota is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformed is returned when a 200 response lacks the expected data.
	ErrMalformed = errors.New("malformed response")
)

// Rate is a realtime currency exchange rate.
type Rate struct {
	From        string
	To          string
	Rate        decimal.Decimal
	RefreshedAt time.Time
}

// Bar is one FX candle; only the close is kept.
type Bar struct {
	Time  time.Time
	Close decimal.Decimal
}

// CurrencyExchangeRate calls function=CURRENCY_EXCHANGE_RATE.
func (c *Client) CurrencyExchangeRate(ctx context.Context, from, to string) (Rate, error) {
	body, err := c.get(ctx, map[string]string{
		"function":      "CURRENCY_EXCHANGE_RATE",
		"from_currency": from,
		"to_currency":   to,
	})
	if err != nil {
		return Rate{}, err
	}

	// {
	//   "Realtime Currency Exchange Rate": {
	//     "1. From_Currency Code": "XAU",
	//     "3. To_Currency Code": "USD",
	//     "5. Exchange Rate": "2701.33000000",
	//     "6. Last Refreshed": "2025-06-02 14:37:01",
	//     "7. Time Zone": "UTC"
	//   }
	// }
	var section map[string]string
	if err := decodeSection(body, "Realtime Currency Exchange Rate", &section); err != nil {
		return Rate{}, err
	}
	raw, ok := section["5. Exchange Rate"]
	if !ok {
		return Rate{}, errors.Wrap(ErrMalformed, `missing "5. Exchange Rate"`)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Rate{}, errors.Wrapf(ErrMalformed, "exchange rate %q", raw)
	}

	out := Rate{From: from, To: to, Rate: rate}
	if ts, err := time.Parse(time.DateTime, section["6. Last Refreshed"]); err == nil {
		out.RefreshedAt = ts
	}
	return out, nil
}

// FXDaily calls function=FX_DAILY. Bars are returned oldest first.
func (c *Client) FXDaily(ctx context.Context, from, to string, full bool) ([]Bar, error) {
	size := "compact"
	if full {
		size = "full"
	}
	body, err := c.get(ctx, map[string]string{
		"function":    "FX_DAILY",
		"from_symbol": from,
		"to_symbol":   to,
		"outputsize":  size,
	})
	if err != nil {
		return nil, err
	}
	return decodeBars(body, "Time Series FX (Daily)", time.DateOnly)
}

// FXIntraday calls function=FX_INTRADAY with interval such as "60min".
func (c *Client) FXIntraday(ctx context.Context, from, to, interval string) ([]Bar, error) {
	body, err := c.get(ctx, map[string]string{
		"function":    "FX_INTRADAY",
		"from_symbol": from,
		"to_symbol":   to,
		"interval":    interval,
	})
	if err != nil {
		return nil, err
	}
	return decodeBars(body, fmt.Sprintf("Time Series FX (%s)", interval), time.DateTime)
}

func (c *Client) get(ctx context.Context, params map[string]string) (map[string]json.RawMessage, error) {
	query := maps.Clone(c.query)
	for k, v := range params {
		query.Set(k, v)
	}

	url := fmt.Sprintf("%s%s?%s", c.baseURL, queryPath, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "performing request")
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusTooManyRequests:
		return nil, ErrRateLimited

	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, errors.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decoding response: %v", err)
	}

	for _, key := range []string{"Note", "Information"} {
		if msg, ok := body[key]; ok {
			return nil, errors.Wrapf(ErrRateLimited, "%s: %s", key, string(msg))
		}
	}
	if msg, ok := body["Error Message"]; ok {
		return nil, errors.Wrapf(ErrMalformed, "api error: %s", string(msg))
	}
	return body, nil
}

func decodeSection(body map[string]json.RawMessage, key string, out any) error {
	raw, ok := body[key]
	if !ok {
		return errors.Wrapf(ErrMalformed, "missing %q", key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(ErrMalformed, "decoding %q: %v", key, err)
	}
	return nil
}

func decodeBars(body map[string]json.RawMessage, key, layout string) ([]Bar, error) {
	// "2025-06-02": {"1. open": "...", "2. high": "...", "3. low": "...", "4. close": "2701.3300"}
	var series map[string]map[string]string
	if err := decodeSection(body, key, &series); err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(series))
	for ds, fields := range series {
		ts, err := time.Parse(layout, ds)
		if err != nil {
			continue
		}
		px, err := decimal.NewFromString(strings.TrimSpace(fields["4. close"]))
		if err != nil {
			continue
		}
		bars = append(bars, Bar{Time: ts, Close: px})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

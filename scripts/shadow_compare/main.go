// Command shadow_compare replays a set of read-only portal endpoints
// against both the legacy PHP backend and this service, and reports
// status or body mismatches. Used during the cutover to verify parity
// before switching traffic.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type manifest struct {
	Endpoints []endpoint `json:"endpoints"`
	// IgnoreKeys lists JSON object keys stripped before comparison,
	// for fields the two backends can never agree on.
	IgnoreKeys []string `json:"ignore_keys"`
}

type result struct {
	Endpoint     endpoint
	NewStatus    int
	LegacyStatus int
	Match        bool
	Err          error
	NewDur       time.Duration
	LegacyDur    time.Duration
}

func main() {
	var (
		newBase      string
		legacyBase   string
		manifestPath string
		token        string
		timeout      time.Duration
	)

	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "new API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:8000", "legacy API base URL")
	flag.StringVar(&manifestPath, "manifest", filepath.Join("scripts", "shadow_compare", "endpoints.json"), "endpoint manifest path")
	flag.StringVar(&token, "token", "", "bearer token sent to both backends")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	m, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("load manifest: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var breaking, drifted int
	var results []result

	for _, ep := range m.Endpoints {
		res := compare(client, newBase, legacyBase, token, ep, m.IgnoreKeys)
		if res.Err != nil || !res.Match {
			if ep.Critical {
				breaking++
			} else {
				drifted++
			}
		}
		results = append(results, res)
	}

	report(results)
	fmt.Printf("\ncritical mismatches: %d, non-critical: %d\n", breaking, drifted)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints in %s", path)
	}
	return &m, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, ep endpoint, ignore []string) result {
	res := result{Endpoint: ep}

	newStatus, newBody, newDur, err := fetch(client, newBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("new backend: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyDur, err := fetch(client, legacyBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("legacy backend: %w", err)
		return res
	}

	res.NewStatus = newStatus
	res.LegacyStatus = legacyStatus
	res.NewDur = newDur
	res.LegacyDur = legacyDur
	res.Match = newStatus == legacyStatus && bodiesEqual(newBody, legacyBody, ignore)
	return res
}

func fetch(client *http.Client, base, token string, ep endpoint) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ep.Path, "/")

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return string(a) == string(b)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	scrub(&av, ignore)
	scrub(&bv, ignore)
	return reflect.DeepEqual(av, bv)
}

// scrub removes ignored keys and collapses whole-number floats so that
// 5 and 5.0 compare equal across backends.
func scrub(v *interface{}, ignore []string) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for _, key := range ignore {
			delete(val, key)
		}
		for k, child := range val {
			scrub(&child, ignore)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			scrub(&child, ignore)
			val[i] = child
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(results []result) {
	for _, res := range results {
		state := "OK"
		switch {
		case res.Err != nil:
			state = "ERROR"
		case !res.Match:
			state = "DIFF"
		}
		fmt.Printf("[%-5s] %s %s\n", state, res.Endpoint.Method, res.Endpoint.Path)
		if res.Err != nil {
			fmt.Printf("        %v\n", res.Err)
			continue
		}
		fmt.Printf("        new: %d (%s)  legacy: %d (%s)  critical: %t\n",
			res.NewStatus, res.NewDur, res.LegacyStatus, res.LegacyDur, res.Endpoint.Critical)
	}
}

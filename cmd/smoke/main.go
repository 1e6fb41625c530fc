package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// smoke drives one case through the running API: submit, confirm twice
// (the second must come back as a duplicate), then generate briefs.

var (
	baseURL = flag.String("base", "http://localhost:3000/api/v1", "API base URL")
	client  = &http.Client{Timeout: 2 * time.Minute}
	token   string
)

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, path string, body interface{}) (int, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, *baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, nil
}

func step(title, method, path string, body interface{}) map[string]interface{} {
	color.Yellow("\n%s", title)
	status, resp, err := sendRequest(method, path, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if status >= 400 {
		color.Red("Status: %d", status)
		prettyPrint(resp)
		os.Exit(1)
	}
	color.Green("Status: %d", status)
	data, _ := resp["data"].(map[string]interface{})
	if data == nil {
		prettyPrint(resp)
	} else {
		prettyPrint(data)
	}
	return data
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "smoke",
			"exp": time.Now().Add(10 * time.Minute).Unix(),
		}).SignedString([]byte(secret))
		if err != nil {
			color.Red("Failed to sign token: %v", err)
			os.Exit(1)
		}
		token = signed
	}

	color.Cyan("🚀 Case lifecycle smoke test against %s", *baseURL)

	thread := strconv.FormatInt(time.Now().UnixNano(), 10)
	event := step("1. Submit inquiry", "POST", "/events", map[string]interface{}{
		"text":       "client: acme wants a 200 guest product launch in Lisbon on 2026-11-20, budget 80k",
		"user_id":    "USMOKE",
		"channel_id": "CSMOKE",
		"thread_ts":  thread,
	})
	caseID, _ := event["case_id"].(string)
	if caseID == "" {
		color.Red("No case id returned")
		os.Exit(1)
	}
	if event["status"] == "needs_escalation" {
		color.Red("Reasoning escalated, stopping here")
		os.Exit(1)
	}

	confirm := map[string]interface{}{
		"case_id":     caseID,
		"action_kind": "confirm_correct",
		"actor":       "USMOKE",
		"message_ts":  thread + ".1",
	}
	step("2. Confirm", "POST", "/actions", confirm)
	dup := step("3. Confirm again (double click)", "POST", "/actions", confirm)
	if dup["status"] != "duplicate" {
		color.Red("Expected duplicate, got %v", dup["status"])
		os.Exit(1)
	}

	escaped := url.PathEscape(caseID)
	color.Yellow("\n4. Generate briefs")
	status, resp, err := sendRequest("POST", "/cases/"+escaped+"/briefs", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %d", status)
	prettyPrint(resp["data"])

	step("5. Final case state", "GET", "/cases/"+escaped, nil)
	color.Cyan("\n✅ Smoke test finished")
}

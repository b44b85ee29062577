package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xhttp "prospect-composer/internal/common/http"
	"prospect-composer/internal/models"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v2"

type CRMClient struct {
	oauthToken string
	baseURL    string
	httpClient *xhttp.Client
}

// Lead is a record in the Zoho Leads module.
type Lead struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Company     string `json:"Company,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Status      string `json:"Lead_Status,omitempty"`
	Rating      string `json:"Rating,omitempty"`
	Industry    string `json:"Industry,omitempty"`
	Description string `json:"Description,omitempty"`
}

type upsertResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string, httpClient *xhttp.Client) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = xhttp.NewClient(30 * time.Second)
	}
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	body, status, err := c.send(ctx, http.MethodPost, "/Leads", map[string]interface{}{"data": []Lead{*lead}})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", fmt.Errorf("failed to create lead (status %d): %s", status, string(body))
	}
	return parseUpsert(body, "lead creation")
}

func (c *CRMClient) UpdateLead(ctx context.Context, id string, lead *Lead) error {
	body, status, err := c.send(ctx, http.MethodPut, "/Leads/"+url.PathEscape(id), map[string]interface{}{"data": []Lead{*lead}})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to update lead (status %d): %s", status, string(body))
	}
	_, err = parseUpsert(body, "lead update")
	return err
}

// SearchLeads finds leads by email. Zoho answers an empty search with 204.
func (c *CRMClient) SearchLeads(ctx context.Context, email string) ([]Lead, error) {
	body, status, err := c.send(ctx, http.MethodGet, "/Leads/search?email="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("failed to search leads (status %d): %s", status, string(body))
	}

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Data, nil
}

// SyncLead creates or updates the Zoho lead matching the email and returns
// its Zoho id.
func (c *CRMClient) SyncLead(ctx context.Context, lead *models.Lead) (string, error) {
	record := FromLead(lead)

	id := lead.CRMContactID
	if id == "" {
		found, err := c.SearchLeads(ctx, lead.Email)
		if err != nil {
			return "", err
		}
		if len(found) > 0 {
			id = found[0].ID
		}
	}
	if id == "" {
		return c.CreateLead(ctx, record)
	}
	if err := c.UpdateLead(ctx, id, record); err != nil {
		return "", err
	}
	return id, nil
}

// FromLead maps a captured lead onto the Zoho Leads layout. Zoho requires a
// last name and a company.
func FromLead(l *models.Lead) *Lead {
	company := l.Company
	if company == "" {
		company = l.FullName()
	}
	rating := ""
	switch l.Tier {
	case models.LeadTierA:
		rating = "Hot"
	case models.LeadTierB:
		rating = "Warm"
	case models.LeadTierC:
		rating = "Cold"
	}

	var desc []string
	if l.ResourceTitle != "" {
		desc = append(desc, "Resource: "+l.ResourceTitle)
	}
	if l.AssessmentScore != nil {
		desc = append(desc, fmt.Sprintf("Assessment: %d (%s)", *l.AssessmentScore, l.AssessmentTier))
	}
	if l.Message != "" {
		desc = append(desc, l.Message)
	}

	return &Lead{
		Email:       l.Email,
		FirstName:   l.FirstName,
		LastName:    l.LastName,
		Company:     company,
		Phone:       l.Phone,
		Source:      "Website - " + string(l.FormType),
		Status:      string(l.Status),
		Rating:      rating,
		Industry:    l.Industry,
		Description: strings.Join(desc, "\n"),
	}
}

func (c *CRMClient) send(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func parseUpsert(body []byte, op string) (string, error) {
	var resp upsertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("%s failed: %s", op, resp.Data[0].Message)
	}
	return resp.Data[0].Details.ID, nil
}

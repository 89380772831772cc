package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/verte-zerg/qsurvey/internal/filter"
	"github.com/verte-zerg/qsurvey/internal/model"
)

const (
	pathLogin       = "/auth/login"
	pathPivotData   = "/survey/pivot-data"
	pathExportExcel = "/survey/export-excel"
	pathSingleImage = "/survey/download-single-image"
	pathZipImage    = "/survey/download-zip-image"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type singleImageRequest struct {
	ProjectID string `json:"projectId"`
	File      string `json:"file"`
}

type zipImageRequest struct {
	ProjectID string   `json:"projectId"`
	Files     []string `json:"files"`
}

// Login exchanges credentials for an access token. Any non-2xx answer,
// including 401, is ErrLoginRejected rather than a session expiry.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, pathLogin, nil, loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Infow("login rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: server returned %d", ErrLoginRejected, resp.StatusCode)
	}
	var out loginResponse
	if err := decodeBody(resp, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: response has no access_token", ErrLoginRejected)
	}
	return out.AccessToken, nil
}

// SurveyData queries records matching the normalized filter parameters.
func (c *Client) SurveyData(ctx context.Context, params url.Values) ([]model.SurveyRecord, error) {
	var records []model.SurveyRecord
	if err := c.getJSON(ctx, pathPivotData, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ExportExcel fetches the spreadsheet for a date range plus optional filters.
func (c *Client) ExportExcel(ctx context.Context, from, to string, others url.Values) (Download, error) {
	if from == "" || to == "" {
		return Download{}, filter.ErrRangeRequired
	}
	query := url.Values{}
	for key, values := range others {
		if key == filter.KeyFromDate || key == filter.KeyToDate {
			continue
		}
		query[key] = append([]string(nil), values...)
	}
	query.Set(filter.KeyFromDate, from)
	query.Set(filter.KeyToDate, to)
	return c.fetch(ctx, http.MethodGet, pathExportExcel, query, nil)
}

// DownloadSingleImage fetches one image of a record.
func (c *Client) DownloadSingleImage(ctx context.Context, projectID, file string) (Download, error) {
	return c.fetch(ctx, http.MethodPost, pathSingleImage, nil, singleImageRequest{ProjectID: projectID, File: file})
}

// DownloadImagesZip fetches several images of a record as one archive.
func (c *Client) DownloadImagesZip(ctx context.Context, projectID string, files []string) (Download, error) {
	return c.fetch(ctx, http.MethodPost, pathZipImage, nil, zipImageRequest{ProjectID: projectID, Files: files})
}

// DownloadImages picks the single or archive endpoint from the number of files.
func (c *Client) DownloadImages(ctx context.Context, projectID string, files []string) (Download, error) {
	switch len(files) {
	case 0:
		return Download{}, fmt.Errorf("record %s has no images", projectID)
	case 1:
		return c.DownloadSingleImage(ctx, projectID, files[0])
	default:
		return c.DownloadImagesZip(ctx, projectID, files)
	}
}

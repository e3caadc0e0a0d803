package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
)

// Documents lists a company's uploaded PDFs.
func (c *Client) Documents(ctx context.Context, companyID int64) ([]Document, error) {
	var out []Document
	if err := c.doJSON(ctx, "documents.list", "GET", fmt.Sprintf("/companies/%d/pdfs", companyID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocument uploads a PDF for a company. The content is buffered so the
// request can be replayed after a token refresh.
func (c *Client) UploadDocument(ctx context.Context, companyID int64, filename string, content io.Reader) (Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Document{}, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Document{}, fmt.Errorf("reading upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Document{}, fmt.Errorf("finalizing upload form: %w", err)
	}

	var out Document
	path := fmt.Sprintf("/companies/%d/pdfs", companyID)
	if err := c.do(ctx, "documents.upload", "POST", path, nil, buf.Bytes(), mw.FormDataContentType(), &out, true); err != nil {
		return Document{}, err
	}
	return out, nil
}

// DeleteDocument removes an uploaded PDF.
func (c *Client) DeleteDocument(ctx context.Context, companyID, documentID int64) error {
	path := fmt.Sprintf("/companies/%d/pdfs/%d", companyID, documentID)
	return c.doJSON(ctx, "documents.delete", "DELETE", path, nil, nil, nil)
}

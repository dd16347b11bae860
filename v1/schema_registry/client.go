package schema_registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"golang.org/x/sync/singleflight"
)

const contentType = "application/vnd.schemaregistry.v1+json"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Registry provides an interface for interacting with a Confluent Schema Registry.
// It handles schema registration, retrieval, and caching for efficient serialization.
type Registry interface {
	// Register registers definition under subject and returns its id.
	// Identical registrations are answered from cache.
	Register(ctx context.Context, subject, definition string, version int) (uint32, error)

	// GetSchemaByID retrieves a schema by its ID
	GetSchemaByID(ctx context.Context, id uint32) (*Schema, error)

	// GetSchemaBySubjectVersion retrieves a subject's schema at version; 0 means latest.
	GetSchemaBySubjectVersion(ctx context.Context, subject string, version int) (*Schema, error)

	// GetLatestSchema retrieves the latest version of a schema for a subject
	GetLatestSchema(ctx context.Context, subject string) (*Schema, error)

	// CheckCompatibility checks if a schema is compatible with the latest version
	CheckCompatibility(ctx context.Context, subject, definition string) (bool, error)

	Serializer() *Serializer
	Deserializer() *Deserializer
}

// Schema is a registered schema. Values returned by the client are shared
// with its caches and must not be modified.
type Schema struct {
	ID         uint32     `json:"id"`
	Subject    string     `json:"subject,omitempty"`
	Version    int        `json:"version,omitempty"`
	Definition string     `json:"schema"`
	Type       SchemaType `json:"schemaType,omitempty"`
}

// Logger is the subset of the logger package used by the client.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

type subjectVersion struct {
	subject string
	version int
}

type registrationKey struct {
	subject    string
	version    int
	schemaType SchemaType
	definition string
}

// Client is the default implementation of Registry
// that communicates with Confluent Schema Registry over HTTP.
//
// Lookups by id go through three tiers: the in-process cache, the optional
// shared Store, then the registry itself. Concurrent misses for one id share
// a single request, which is not cancelled when one of the waiting callers
// gives up.
type Client struct {
	url        string
	httpClient *http.Client

	// Authentication
	username string
	password string

	format  Format
	formats map[SchemaType]Format

	store    Store
	logger   Logger
	observer observability.Observer

	byID       *cache[uint32, *Schema]
	bySubject  *cache[subjectVersion, *Schema]
	registered *cache[registrationKey, uint32]

	flights singleflight.Group

	serializer   *Serializer
	deserializer *Deserializer
}

// NewClient creates a new schema registry client
// Returns the concrete *Client type.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("schema registry URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultCacheSize
	}

	format, err := FormatFor(config.SchemaType, config.CacheSize)
	if err != nil {
		return nil, err
	}

	byID, err := newCache[uint32, *Schema](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating schema cache: %w", err)
	}
	bySubject, err := newCache[subjectVersion, *Schema](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating subject cache: %w", err)
	}
	registered, err := newCache[registrationKey, uint32](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating registration cache: %w", err)
	}

	c := &Client{
		url: strings.TrimRight(config.URL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		username:   config.Username,
		password:   config.Password,
		byID:       byID,
		bySubject:  bySubject,
		registered: registered,
		formats: map[SchemaType]Format{
			SchemaTypeAvro: NewAvroFormat(config.CacheSize),
			SchemaTypeJSON: JSONFormat{},
		},
	}
	c.WithFormat(format)
	c.serializer = &Serializer{client: c}
	c.deserializer = &Deserializer{client: c}

	return c, nil
}

// Register registers definition under subject and returns the id the
// registry assigned. The result is cached per (subject, version, definition),
// so repeating the call is a cache lookup. version only distinguishes cache
// entries; the registry assigns versions itself.
func (c *Client) Register(ctx context.Context, subject, definition string, version int) (uint32, error) {
	if definition == "" {
		return 0, fmt.Errorf("%w: empty definition for subject %q", ErrInvalidSchema, subject)
	}

	schemaType := c.format.Type()
	key := registrationKey{subject: subject, version: version, schemaType: schemaType, definition: definition}

	id, ok := c.registered.Get(key)
	if ok {
		return id, nil
	}

	payload := map[string]interface{}{
		"schema": definition,
	}
	if schemaType != SchemaTypeAvro {
		payload["schemaType"] = string(schemaType)
	}

	var result struct {
		ID uint32 `json:"id"`
	}

	start := time.Now()
	err := c.do(ctx, http.MethodPost, "/subjects/"+url.PathEscape(subject)+"/versions", payload, &result)
	c.observeOperation("register", subject, strconv.Itoa(version), time.Since(start), err, int64(len(definition)), nil)
	if err != nil {
		return 0, fmt.Errorf("registering schema for subject %q: %w", subject, err)
	}

	c.registered.Add(key, result.ID)
	if !c.byID.Contains(result.ID) {
		c.byID.Add(result.ID, &Schema{ID: result.ID, Subject: subject, Definition: definition, Type: schemaType})
	}

	return result.ID, nil
}

// GetSchemaByID retrieves a schema from the registry by its ID
func (c *Client) GetSchemaByID(ctx context.Context, id uint32) (*Schema, error) {
	if schema, ok := c.cachedByID(id); ok {
		return schema, nil
	}

	// The shared fetch outlives any single caller; the HTTP client timeout
	// bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	flight := c.flights.DoChan(strconv.FormatUint(uint64(id), 10), func() (interface{}, error) {
		if schema, ok := c.cachedByID(id); ok {
			return schema, nil
		}

		schema, err := c.loadByID(fetchCtx, id)
		if err != nil {
			return nil, err
		}

		c.byID.Add(id, schema)

		return schema, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: fetching schema %d: %w", ErrRegistryUnavailable, id, ctx.Err())
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Schema), nil
	}
}

func (c *Client) cachedByID(id uint32) (*Schema, bool) {
	return c.byID.Get(id)
}

// loadByID reads through the shared store to the registry. Store failures
// are logged and skipped.
func (c *Client) loadByID(ctx context.Context, id uint32) (*Schema, error) {
	resource := strconv.FormatUint(uint64(id), 10)

	if c.store != nil {
		schema, err := c.store.Get(ctx, id)
		if err != nil {
			c.warn(ctx, "schema store read failed", err, map[string]interface{}{"schema_id": id})
		} else if schema != nil {
			return schema, nil
		}
	}

	var result Schema
	start := time.Now()
	err := c.do(ctx, http.MethodGet, "/schemas/ids/"+resource, nil, &result)
	c.observeOperation("get_schema_by_id", resource, "", time.Since(start), err, int64(len(result.Definition)), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching schema %d: %w", id, err)
	}

	result.ID = id
	if result.Type == "" {
		result.Type = SchemaTypeAvro
	}

	if c.store != nil {
		if err := c.store.Put(ctx, &result); err != nil {
			c.warn(ctx, "schema store write failed", err, map[string]interface{}{"schema_id": id})
		}
	}

	return &result, nil
}

// GetSchemaBySubjectVersion retrieves the schema registered under subject at
// version. Version 0 asks for the latest version and is never cached by
// subject; the schema it returns is still cached by id.
func (c *Client) GetSchemaBySubjectVersion(ctx context.Context, subject string, version int) (*Schema, error) {
	if version < 0 {
		return nil, fmt.Errorf("invalid version %d for subject %q", version, subject)
	}

	key := subjectVersion{subject: subject, version: version}
	ref := "latest"
	if version > 0 {
		schema, ok := c.bySubject.Get(key)
		if ok {
			return schema, nil
		}
		ref = strconv.Itoa(version)
	}

	var result Schema
	start := time.Now()
	err := c.do(ctx, http.MethodGet, "/subjects/"+url.PathEscape(subject)+"/versions/"+ref, nil, &result)
	c.observeOperation("get_schema_by_subject", subject, ref, time.Since(start), err, int64(len(result.Definition)), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching subject %q version %s: %w", subject, ref, err)
	}

	if result.Subject == "" {
		result.Subject = subject
	}
	if result.Type == "" {
		result.Type = SchemaTypeAvro
	}

	c.byID.Add(result.ID, &result)
	if version > 0 {
		c.bySubject.Add(key, &result)
	}

	return &result, nil
}

// GetLatestSchema retrieves the latest version of a schema for a subject
func (c *Client) GetLatestSchema(ctx context.Context, subject string) (*Schema, error) {
	return c.GetSchemaBySubjectVersion(ctx, subject, 0)
}

// CheckCompatibility checks if a schema is compatible with the existing schema for a subject
func (c *Client) CheckCompatibility(ctx context.Context, subject, definition string) (bool, error) {
	payload := map[string]interface{}{
		"schema": definition,
	}
	if t := c.format.Type(); t != SchemaTypeAvro {
		payload["schemaType"] = string(t)
	}

	var result struct {
		IsCompatible bool `json:"is_compatible"`
	}

	start := time.Now()
	err := c.do(ctx, http.MethodPost, "/compatibility/subjects/"+url.PathEscape(subject)+"/versions/latest", payload, &result)
	c.observeOperation("check_compatibility", subject, "", time.Since(start), err, int64(len(definition)), nil)
	if err != nil {
		return false, fmt.Errorf("checking compatibility for subject %q: %w", subject, err)
	}

	return result.IsCompatible, nil
}

// Serializer returns the serializer bound to this client.
func (c *Client) Serializer() *Serializer {
	return c.serializer
}

// Deserializer returns the deserializer bound to this client.
func (c *Client) Deserializer() *Deserializer {
	return c.deserializer
}

// formatFor returns the Format for a schema type reported by the registry.
// An empty type means Avro.
func (c *Client) formatFor(t SchemaType) (Format, error) {
	if t == "" {
		t = SchemaTypeAvro
	}
	if f, ok := c.formats[SchemaType(strings.ToUpper(string(t)))]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchemaType, t)
}

// do sends a request and decodes a 200 response into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", contentType)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readRegistryError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrRegistryUnavailable, err)
	}
	return nil
}

func readRegistryError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	regErr := &RegistryError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, regErr); err != nil || regErr.Message == "" {
		regErr.Message = strings.TrimSpace(string(raw))
	}
	regErr.kind = classifyStatus(resp.StatusCode, regErr.ErrorCode)
	return regErr
}

func (c *Client) warn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

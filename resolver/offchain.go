package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/piprate/json-gold/ld"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
	"github.com/owizdom/astral-location-services-sub000/common/canonical"
	commoncrypto "github.com/owizdom/astral-location-services-sub000/common/crypto"
	"github.com/owizdom/astral-location-services-sub000/geometry"
)

// FetcherConfig configures off-chain content retrieval.
type FetcherConfig struct {
	// Timeout bounds one fetch. Defaults to 10 seconds.
	Timeout time.Duration
	// MaxBodyBytes caps the fetched document size. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Fetcher retrieves off-chain content over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher builds a Fetcher with an instrumented transport.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes: maxBytes,
	}
}

// Fetch retrieves the content at uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, err, "malformed off-chain URI %q", uri)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, err, "failed to fetch %q", uri)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.CodeUpstreamUnavailable, "fetching %q returned status %s", uri, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, err, "failed to read body of %q", uri)
	}
	return body, nil
}

// resolveOffChain fetches the referenced content, verifies that it hashes to
// the declared checksum, verifies any embedded signature, and then treats the
// inner geometry as inline while keeping the declared identifier as the
// reference.
func (r *Resolver) resolveOffChain(ctx context.Context, in OffChainReference) (ResolvedInput, error) {
	body, err := r.fetcher.Fetch(ctx, in.URI)
	if err != nil {
		return ResolvedInput{}, err
	}

	var doc map[string]interface{}
	if compactJWSPattern.Match(body) {
		doc, err = verifyJWSDocument(string(body))
	} else {
		doc, err = parseSignedDocument(body)
	}
	if err != nil {
		return ResolvedInput{}, err
	}

	checksum, err := contentChecksum(doc)
	if err != nil {
		return ResolvedInput{}, err
	}
	if checksum != in.UID {
		return ResolvedInput{}, apperr.New(apperr.CodeUnverified,
			"content at %q hashes to %s, declared %s", in.URI, checksum.Hex(), in.UID.Hex())
	}
	if selfUID, ok := doc["uid"].(string); ok && common.HexToHash(selfUID) != in.UID {
		return ResolvedInput{}, apperr.New(apperr.CodeUnverified,
			"content self-reports identifier %s, declared %s", selfUID, in.UID.Hex())
	}

	geom, err := extractGeometry(doc)
	if err != nil {
		return ResolvedInput{}, err
	}
	return ResolvedInput{Geometry: geom, Reference: in.UID}, nil
}

var compactJWSPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+$`)

// parseSignedDocument parses a JSON document and verifies its embedded proof
// when one is present. The proof's verification method carries the signer's
// compressed public key; the proof value signs the content checksum digest.
func parseSignedDocument(body []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, err, "off-chain content is not valid JSON")
	}

	rawProof, ok := doc["proof"]
	if !ok {
		return doc, nil
	}
	proofMap, ok := rawProof.(map[string]interface{})
	if !ok {
		return nil, apperr.New(apperr.CodeUnverified, "embedded proof has unexpected shape %T", rawProof)
	}

	pubHex, _ := proofMap["verificationMethod"].(string)
	sigHex, _ := proofMap["proofValue"].(string)
	pub, err := hexutil.Decode(pubHex)
	if err != nil {
		return nil, apperr.New(apperr.CodeUnverified, "embedded proof verification method %q is not a hex public key", pubHex)
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, apperr.New(apperr.CodeUnverified, "embedded proof value %q is not a hex signature", sigHex)
	}

	digest, err := contentChecksum(doc)
	if err != nil {
		return nil, err
	}
	if !commoncrypto.VerifySignature(pub, digest.Bytes(), sig) {
		return nil, apperr.New(apperr.CodeUnverified, "embedded proof signature does not verify")
	}
	return doc, nil
}

// verifyJWSDocument parses a compact ES256K JWS whose claims hold the
// location document plus the signer's compressed public key.
func verifyJWSDocument(token string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		pubHex, _ := claims["pub"].(string)
		if pubHex == "" {
			return nil, fmt.Errorf("token claims carry no public key")
		}
		pub, err := hexutil.Decode(pubHex)
		if err != nil {
			return nil, fmt.Errorf("malformed public key %q: %w", pubHex, err)
		}
		key, err := gethcrypto.DecompressPubkey(pub)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress public key: %w", err)
		}
		if !commoncrypto.OnCurve(key) {
			return nil, fmt.Errorf("public key is not a valid curve point")
		}
		return key, nil
	}, jwt.WithValidMethods([]string{ES256K.Alg()}))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnverified, err, "failed to verify JWS document")
	}
	if !parsed.Valid {
		return nil, apperr.New(apperr.CodeUnverified, "JWS document signature is invalid")
	}

	return map[string]interface{}(claims), nil
}

// contentChecksum computes the identifier checksum of an off-chain document:
// the Keccak-256 digest of its canonical form with the identifier and proof
// members removed. JSON-LD documents are normalized with URDNA2015 first.
func contentChecksum(doc map[string]interface{}) (common.Hash, error) {
	content := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		switch k {
		case "uid", "proof", "pub":
		default:
			content[k] = v
		}
	}

	if _, isLinkedData := content["@context"]; isLinkedData {
		normalized, err := normalizeLinkedData(content)
		if err != nil {
			return common.Hash{}, err
		}
		return gethcrypto.Keccak256Hash(normalized), nil
	}

	return canonical.HashObject(content)
}

var linkedDataLoader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(nil))

func normalizeLinkedData(doc map[string]interface{}) ([]byte, error) {
	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015
	options.DocumentLoader = linkedDataLoader

	normalized, err := processor.Normalize(doc, options)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnverified, err, "failed to normalize JSON-LD document")
	}
	return []byte(normalized.(string)), nil
}

// extractGeometry pulls the geometry out of an off-chain document: either a
// "geometry" member or the document itself (geometry or Feature shaped).
func extractGeometry(doc map[string]interface{}) (geometry.Geometry, error) {
	target := doc
	if inner, ok := doc["geometry"].(map[string]interface{}); ok {
		if _, isFeature := doc["type"]; !isFeature || doc["type"] == "Feature" {
			target = inner
		}
	}

	raw, err := json.Marshal(target)
	if err != nil {
		return geometry.Geometry{}, apperr.Wrap(apperr.CodeInvalidInput, err, "failed to re-serialize off-chain geometry")
	}
	return geometry.Parse(raw)
}

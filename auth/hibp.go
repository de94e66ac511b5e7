package auth

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	hibpRangeURL  = "https://api.pwnedpasswords.com/range/"
	hibpUserAgent = "docvault-author/0.1"
)

var hibpHTTPClient = &http.Client{
	Timeout: 4 * time.Second,
}

// HIBPResult reports whether a passphrase appears in the HIBP breach corpus
// and how many breaches carry it.
type HIBPResult struct {
	Found bool
	Count int
}

// CheckHIBP asks the HIBP range API whether the passphrase is breached,
// using k-anonymity: only the first 5 hex characters of SHA1(pw) leave the
// machine, and the remaining 35 are matched locally against the returned
// range. Authoring is the only caller, and only when the author opts in;
// the unlock path never touches the network. The caller decides whether an
// error fails the build open or closed.
func CheckHIBP(ctx context.Context, pw string) (HIBPResult, error) {
	digest := sha1.Sum([]byte(pw))
	full := strings.ToUpper(hex.EncodeToString(digest[:]))
	prefix, suffix := full[:5], full[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hibpRangeURL+prefix, nil)
	if err != nil {
		return HIBPResult{}, fmt.Errorf("build range query: %w", err)
	}
	req.Header.Set("User-Agent", hibpUserAgent)

	resp, err := hibpHTTPClient.Do(req)
	if err != nil {
		return HIBPResult{}, fmt.Errorf("query breach corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HIBPResult{}, fmt.Errorf("breach corpus returned %s", resp.Status)
	}

	return scanRange(resp.Body, suffix)
}

// scanRange walks the SUFFIX:COUNT lines of a range response looking for the
// local hash suffix. Suffixes compare case-insensitively; rows that do not
// split as SUFFIX:COUNT are skipped, never trusted.
func scanRange(body io.Reader, suffix string) (HIBPResult, error) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		row, count, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(row, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return HIBPResult{}, fmt.Errorf("bad breach count %q: %w", count, err)
		}
		return HIBPResult{Found: true, Count: n}, nil
	}
	if err := scanner.Err(); err != nil {
		return HIBPResult{}, fmt.Errorf("read range response: %w", err)
	}
	return HIBPResult{}, nil
}

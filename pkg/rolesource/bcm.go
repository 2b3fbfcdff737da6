// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rolesource

import (
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/defaults"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
)

const devicePath = "/rest/v1/device"

// Device is one entry in the cluster manager's device listing.
type Device struct {
	Hostname string   `json:"hostname"`
	Roles    []string `json:"roles"`
}

// BCMClient queries the cluster manager REST API for role assignments.
type BCMClient struct {
	headNodes []string
	port      int
	roleName  string
	client    *http.Client
}

// NewBCMClient builds a client for the given head nodes using the client
// certificate pair at certPath/keyPath. The certificate is loaded eagerly so
// unreadable credentials surface at startup rather than mid-cycle.
//
// The cluster manager presents a self-signed server certificate, so server
// verification is disabled; authentication rests on the client certificate.
func NewBCMClient(headNodes []string, port int, certPath, keyPath, roleName string) (*BCMClient, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnauthorized, "loading client certificate", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: defaults.APIConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.APITLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.APIResponseHeaderTimeout,
		TLSClientConfig: &tls.Config{
			Certificates:       []tls.Certificate{cert},
			InsecureSkipVerify: true, //nolint:gosec // self-signed cluster manager certs
		},
	}

	return &BCMClient{
		headNodes: headNodes,
		port:      port,
		roleName:  strings.ToLower(roleName),
		client: &http.Client{
			Timeout:   defaults.APIRequestTimeout,
			Transport: transport,
		},
	}, nil
}

// FetchRole implements Source. Head nodes are tried in configured order; the
// first parseable device listing decides the answer. The hostname is matched
// against the listing, and the configured role name is matched
// case-insensitively within that device's roles.
func (c *BCMClient) FetchRole(ctx context.Context, hostname string) (Role, error) {
	if len(c.headNodes) == 0 {
		return RoleAbsent, errors.New(errors.ErrCodeInvalidRequest, "no head nodes configured")
	}

	var lastErr error
	hostSeen := false

	for _, head := range c.headNodes {
		devices, err := c.listDevices(ctx, head)
		if err != nil {
			slog.Warn("head node query failed",
				"headnode", head,
				"error", err,
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for _, dev := range devices {
			if dev.Hostname != hostname {
				continue
			}
			for _, role := range dev.Roles {
				if strings.ToLower(role) == c.roleName {
					return RolePresent, nil
				}
			}
			return RoleAbsent, nil
		}

		// A head node answered but this host is not in the listing. Try the
		// remaining head nodes in case this one served a stale view.
		hostSeen = true
		slog.Warn("host not found in device listing", "headnode", head, "hostname", hostname)
	}

	if hostSeen {
		return RoleAbsent, errors.New(errors.ErrCodeNotFound,
			fmt.Sprintf("host %s not present in any device listing", hostname))
	}
	// Keep credential failures distinct so the loop can log them as
	// operator-actionable rather than transient.
	if errors.IsCode(lastErr, errors.ErrCodeUnauthorized) {
		return RoleAbsent, lastErr
	}
	return RoleAbsent, errors.Wrap(errors.ErrCodeUnavailable, "no head node reachable", lastErr)
}

// listDevices fetches and parses the device listing from one head node.
// Head node addresses may carry an explicit port, which overrides the
// configured API port.
func (c *BCMClient) listDevices(ctx context.Context, head string) ([]Device, error) {
	hostport := head
	if !strings.Contains(head, ":") {
		hostport = fmt.Sprintf("%s:%d", head, c.port)
	}
	url := fmt.Sprintf("https://%s%s", hostport, devicePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "building device request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isCertificateError(err) {
			return nil, errors.Wrap(errors.ErrCodeUnauthorized, "TLS authentication failed", err)
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "device request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrCodeUnauthorized,
			fmt.Sprintf("device request rejected: HTTP %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeUnavailable,
			fmt.Sprintf("device request failed: HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "reading device response", err)
	}

	var devices []Device
	if err := json.Unmarshal(body, &devices); err != nil {
		// Malformed response is a fetch failure, not a crash.
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "parsing device listing", err)
	}

	return devices, nil
}

// isCertificateError distinguishes TLS/credential failures from plain
// connectivity errors so the loop can log them distinctly.
func isCertificateError(err error) bool {
	var recordErr tls.RecordHeaderError
	if stderrors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if stderrors.As(err, &certErr) {
		return true
	}
	// Alert-level handshake failures (e.g. bad certificate) surface as
	// generic errors mentioning tls.
	return err != nil && strings.Contains(err.Error(), "tls:")
}

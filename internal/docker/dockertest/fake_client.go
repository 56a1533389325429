// Package dockertest provides test doubles for internal/docker.Client.
//
// FakeAPIClient uses the function-field pattern (Docker CLI convention):
// each SDK method the pipeline calls has a corresponding Fn field. If the
// field is set, the fake delegates to it and records the call. If the field
// is nil, the call panics with "not implemented: MethodName" so unexpected
// daemon traffic fails loudly.
package dockertest

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"

	"github.com/schmitthub/gantry/internal/docker"
)

// FakeAPIClient is a test double for docker.APIClient.
type FakeAPIClient struct {
	// mu protects Calls from concurrent access.
	mu sync.Mutex

	// Calls records the method names invoked on this fake, in order.
	Calls []string

	PingFn                func(ctx context.Context) (types.Ping, error)
	ImageBuildFn          func(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePushFn           func(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	ImageTagFn            func(ctx context.Context, source, target string) error
	ImageInspectWithRawFn func(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	DialHijackFn          func(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error)
	CloseFn               func() error
}

var _ docker.APIClient = (*FakeAPIClient)(nil)

// NewFakeAPIClient returns a fake whose Ping succeeds with a BuildKit-capable
// Linux daemon. Everything else panics until its Fn field is set.
func NewFakeAPIClient() *FakeAPIClient {
	return &FakeAPIClient{
		PingFn: func(context.Context) (types.Ping, error) {
			return types.Ping{
				APIVersion:     "1.47",
				OSType:         "linux",
				BuilderVersion: build.BuilderBuildKit,
			}, nil
		},
	}
}

// NewFakeClient wraps a FakeAPIClient in a real *docker.Client so stream
// processing and label merging execute real code in tests.
func NewFakeClient() (*docker.Client, *FakeAPIClient) {
	fake := NewFakeAPIClient()
	return &docker.Client{API: fake}, fake
}

func (f *FakeAPIClient) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

func notImplemented(method string) {
	panic(fmt.Sprintf("not implemented: %s (set %sFn on FakeAPIClient)", method, method))
}

// Reset clears the Calls log.
func (f *FakeAPIClient) Reset() {
	f.mu.Lock()
	f.Calls = nil
	f.mu.Unlock()
}

// AssertCalled fails the test if method was never invoked.
func (f *FakeAPIClient) AssertCalled(t *testing.T, method string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == method {
			return
		}
	}
	t.Errorf("expected %s to be called; calls: %v", method, f.Calls)
}

// AssertNotCalled fails the test if method was invoked.
func (f *FakeAPIClient) AssertNotCalled(t *testing.T, method string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == method {
			t.Errorf("expected %s not to be called; calls: %v", method, f.Calls)
			return
		}
	}
}

func (f *FakeAPIClient) Ping(ctx context.Context) (types.Ping, error) {
	if f.PingFn == nil {
		notImplemented("Ping")
	}
	f.record("Ping")
	return f.PingFn(ctx)
}

func (f *FakeAPIClient) ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	if f.ImageBuildFn == nil {
		notImplemented("ImageBuild")
	}
	f.record("ImageBuild")
	return f.ImageBuildFn(ctx, buildContext, options)
}

func (f *FakeAPIClient) ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error) {
	if f.ImagePushFn == nil {
		notImplemented("ImagePush")
	}
	f.record("ImagePush")
	return f.ImagePushFn(ctx, ref, options)
}

func (f *FakeAPIClient) ImageTag(ctx context.Context, source, target string) error {
	if f.ImageTagFn == nil {
		notImplemented("ImageTag")
	}
	f.record("ImageTag")
	return f.ImageTagFn(ctx, source, target)
}

func (f *FakeAPIClient) ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	if f.ImageInspectWithRawFn == nil {
		notImplemented("ImageInspectWithRaw")
	}
	f.record("ImageInspectWithRaw")
	return f.ImageInspectWithRawFn(ctx, imageID)
}

func (f *FakeAPIClient) DialHijack(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error) {
	if f.DialHijackFn == nil {
		notImplemented("DialHijack")
	}
	f.record("DialHijack")
	return f.DialHijackFn(ctx, url, proto, meta)
}

func (f *FakeAPIClient) Close() error {
	f.record("Close")
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

// BuildStream assembles a JSON build stream from output lines, in the shape
// the daemon emits. Append ErrorEvent to simulate a failed build.
func BuildStream(lines ...string) io.ReadCloser {
	var b strings.Builder
	for _, l := range lines {
		if strings.HasPrefix(l, "{") {
			b.WriteString(l)
		} else {
			fmt.Fprintf(&b, `{"stream":%q}`, l+"\n")
		}
		b.WriteString("\n")
	}
	return io.NopCloser(strings.NewReader(b.String()))
}

// ErrorEvent renders a build/push error event for BuildStream and PushStream.
func ErrorEvent(msg string) string {
	return fmt.Sprintf(`{"error":%q,"errorDetail":{"message":%q}}`, msg, msg)
}

// PushStream assembles a JSON push stream ending with an aux digest message.
func PushStream(dgst string, statuses ...string) io.ReadCloser {
	var b strings.Builder
	for _, s := range statuses {
		if strings.HasPrefix(s, "{") {
			b.WriteString(s)
		} else {
			fmt.Fprintf(&b, `{"status":%q,"id":"layer"}`, s)
		}
		b.WriteString("\n")
	}
	if dgst != "" {
		fmt.Fprintf(&b, `{"aux":{"Tag":"latest","Digest":%q,"Size":1234}}`, dgst)
		b.WriteString("\n")
	}
	return io.NopCloser(strings.NewReader(b.String()))
}

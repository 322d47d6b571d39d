package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/config"
)

func preserveOTelGlobals(t *testing.T) func() {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	return func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	}
}

func enabledCfg(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledLeavesGlobalsAlone(t *testing.T) {
	restore := preserveOTelGlobals(t)
	defer restore()

	prevTP := otel.GetTracerProvider()
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false, Endpoint: "ignored:4317"}, "dev")
	if err != nil || shutdown == nil {
		t.Fatalf("disabled setup: shutdown=%v err=%v", shutdown != nil, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled tracing must not install a provider")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel() // exporter creation is lazy, so this still succeeds

	cases := []struct {
		name string
		ctx  context.Context
		cfg  func() config.OTELConfig
	}{
		{"insecure", context.Background(), func() config.OTELConfig { return enabledCfg("careerfix-insecure") }},
		{"tls", context.Background(), func() config.OTELConfig {
			c := enabledCfg("careerfix-tls")
			c.Insecure = false
			return c
		}},
		{"canceled ctx", canceled, func() config.OTELConfig { return enabledCfg("careerfix-canceled") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			restore := preserveOTelGlobals(t)
			defer restore()

			shutdown, err := SetupOTel(tc.ctx, tc.cfg(), "v1.2.3")
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
				t.Fatalf("expected *sdktrace.TracerProvider")
			}

			// trace context survives an inject/extract round through headers
			ctx, span := otel.Tracer("services/GenerationService").Start(context.Background(), "Generate",
				trace.WithSpanKind(trace.SpanKindInternal))
			carrier := propagation.MapCarrier{}
			otel.GetTextMapPropagator().Inject(ctx, carrier)
			span.End()
			if carrier.Get("traceparent") == "" {
				t.Fatalf("traceparent not injected: %v", carrier)
			}
			got := trace.SpanContextFromContext(otel.GetTextMapPropagator().Extract(context.Background(), carrier))
			if got.TraceID() != span.SpanContext().TraceID() {
				t.Fatalf("extracted trace id mismatch")
			}

			sctx, scancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
			defer scancel()
			_ = shutdown(sctx)
		})
	}
}

func TestSetupOTel_ZeroRatioDropsRootSpans(t *testing.T) {
	restore := preserveOTelGlobals(t)
	defer restore()

	cfg := enabledCfg("careerfix-sampled-out")
	cfg.SampleRatio = 0
	shutdown, err := SetupOTel(context.Background(), cfg, "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, span := otel.Tracer("test").Start(context.Background(), "root")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Fatalf("root span sampled with ratio 0")
	}
}

func TestSetupOTel_SeamFailuresKeepGlobals(t *testing.T) {
	origExp, origRes := newOTLPExporterFn, newServiceResourceFn
	defer func() { newOTLPExporterFn, newServiceResourceFn = origExp, origRes }()

	cases := map[string]func(){
		"exporter": func() {
			newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
		},
		"resource": func() {
			newServiceResourceFn = func(context.Context, ...attribute.KeyValue) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		},
	}
	for name, inject := range cases {
		t.Run(name, func(t *testing.T) {
			restore := preserveOTelGlobals(t)
			defer restore()
			newOTLPExporterFn, newServiceResourceFn = origExp, origRes
			inject()

			prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
			if _, err := SetupOTel(context.Background(), enabledCfg("careerfix"), "v0"); err == nil {
				t.Fatalf("expected error, got nil")
			}
			if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestServiceResource_CarriesDeploymentEnvironment(t *testing.T) {
	cfg := enabledCfg("careerfix-res")
	cfg.Environment = "staging"

	res, err := newServiceResourceFn(context.Background(), serviceAttributes(cfg, "v2.0.1")...)
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	want := map[attribute.Key]string{
		semconv.ServiceNameKey:           "careerfix-res",
		semconv.ServiceVersionKey:        "v2.0.1",
		semconv.DeploymentEnvironmentKey: "staging",
	}
	for k, v := range want {
		got, ok := res.Set().Value(k)
		if !ok || got.AsString() != v {
			t.Fatalf("%s = %q (present=%v), want %q", k, got.AsString(), ok, v)
		}
	}

	cfg.Environment = ""
	for _, kv := range serviceAttributes(cfg, "v2.0.1") {
		if kv.Key == semconv.DeploymentEnvironmentKey {
			t.Fatalf("empty environment should be omitted")
		}
	}
}

func TestSamplerFor_Bounds(t *testing.T) {
	cases := []struct {
		ratio float64
		root  string
	}{
		{1, "root:AlwaysOnSampler"},
		{1.5, "root:AlwaysOnSampler"},
		{0, "root:AlwaysOffSampler"},
		{0.25, "root:TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		desc := samplerFor(tc.ratio).Description()
		if !strings.HasPrefix(desc, "ParentBased{") || !strings.Contains(desc, tc.root) {
			t.Fatalf("ratio %v: sampler %q, want root %q", tc.ratio, desc, tc.root)
		}
	}
}

func TestExporterOptions_FollowConfig(t *testing.T) {
	cfg := enabledCfg("careerfix")
	if got := len(exporterOptions(cfg)); got != 3 {
		t.Fatalf("insecure options = %d, want 3", got)
	}
	cfg.Headers = map[string]string{"api-key": "abc"}
	if got := len(exporterOptions(cfg)); got != 4 {
		t.Fatalf("options with headers = %d, want 4", got)
	}
	if exportTimeout(cfg) != defaultExportTimeout {
		t.Fatalf("zero timeout should fall back to %v", defaultExportTimeout)
	}
	cfg.ExportTimeout = 2 * time.Second
	if exportTimeout(cfg) != 2*time.Second {
		t.Fatalf("export timeout ignored")
	}
}

type countingPlugin struct{ installs *int }

func (countingPlugin) Name() string { return "counting" }
func (p countingPlugin) Initialize(*gorm.DB) error {
	*p.installs++
	return nil
}

func TestInstrumentDB_OnlyWhenEnabled(t *testing.T) {
	orig := newDBPlugin
	defer func() { newDBPlugin = orig }()

	installs := 0
	newDBPlugin = func() gorm.Plugin { return countingPlugin{installs: &installs} }

	db, err := gorm.Open(sqlite.Open("file:otel_plugin?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := InstrumentDB(db, config.OTELConfig{Enabled: false}); err != nil {
		t.Fatalf("disabled: %v", err)
	}
	if installs != 0 {
		t.Fatalf("plugin installed while tracing disabled")
	}
	if err := InstrumentDB(db, config.OTELConfig{Enabled: true}); err != nil {
		t.Fatalf("enabled: %v", err)
	}
	if installs != 1 {
		t.Fatalf("installs = %d, want 1", installs)
	}
	if err := InstrumentDB(nil, config.OTELConfig{Enabled: true}); err != nil {
		t.Fatalf("nil db should be ignored: %v", err)
	}
}

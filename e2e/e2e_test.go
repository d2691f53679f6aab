package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/swingscope/internal/analysis"
	"github.com/ayusman/swingscope/internal/app"
	"github.com/ayusman/swingscope/internal/pose"
	"github.com/ayusman/swingscope/internal/server"
	"github.com/ayusman/swingscope/internal/store"
	"github.com/ayusman/swingscope/testdata"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application := app.New(app.Config{Store: s})
	application.SetEstimator(pose.NewMockEstimator())
	defer application.Close()

	srv := server.New(server.Config{Store: s, Runner: application})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	post := func(t *testing.T, name string, seq pose.Sequence) *store.Analysis {
		t.Helper()
		body, err := json.Marshal(seq)
		if err != nil {
			t.Fatalf("encode sequence: %v", err)
		}
		resp, err := client.Post(ts.URL+"/api/analyses?name="+name, "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post analysis error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		var a store.Analysis
		if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
			t.Fatalf("decode analysis: %v", err)
		}
		return &a
	}

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	var swing *store.Analysis

	t.Run("AnalyseSwing", func(t *testing.T) {
		swing = post(t, "driver", testdata.SwingSequence(120, 80))

		if swing.CameraAngle != "side_on" {
			t.Errorf("camera angle = %q, want side_on", swing.CameraAngle)
		}
		if swing.TransformApplied {
			t.Error("side-on swing should not be transformed")
		}
		if swing.Quality <= 0.7 {
			t.Errorf("quality = %v, want > 0.7", swing.Quality)
		}
		if swing.ImpactFrame < 77 || swing.ImpactFrame > 83 {
			t.Errorf("impact frame = %d, want near 80", swing.ImpactFrame)
		}
		if string(swing.Issues) != "[]" {
			t.Errorf("issues = %s, want none", swing.Issues)
		}
	})

	t.Run("AnalyseInvisible", func(t *testing.T) {
		a := post(t, "blank", testdata.InvisibleSequence(30))

		if a.Quality != 0 {
			t.Errorf("quality = %v, want 0", a.Quality)
		}
		if !strings.Contains(string(a.Issues), string(analysis.InvalidSequence)) {
			t.Errorf("issues = %s, want %s", a.Issues, analysis.InvalidSequence)
		}
		if len(a.Features) == 0 {
			t.Error("invalid sequences still carry a neutral feature vector")
		}
	})

	t.Run("RejectGarbage", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/analyses", "application/json", strings.NewReader("not json"))
		if err != nil {
			t.Fatalf("post error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("ListAnalyses", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/analyses")
		if err != nil {
			t.Fatalf("list error = %v", err)
		}
		defer resp.Body.Close()

		var list struct {
			Analyses []store.Analysis `json:"analyses"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if len(list.Analyses) != 2 {
			t.Fatalf("len(analyses) = %d, want 2", len(list.Analyses))
		}
	})

	t.Run("ReanalyseStoredSequence", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/analyses/" + swing.ID + "/sequence")
		if err != nil {
			t.Fatalf("get sequence error = %v", err)
		}
		defer resp.Body.Close()

		seq, err := pose.ReadSequence(resp.Body)
		if err != nil {
			t.Fatalf("decode sequence: %v", err)
		}

		res := application.Analyzer().Analyze(seq)
		for i, f := range res.Features {
			if got := swing.Features[i].Value; got != f.Value {
				t.Errorf("feature %s = %v after reload, want %v", f.Name, f.Value, got)
			}
		}
	})

	t.Run("DeleteAnalysis", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/analyses/"+swing.ID, nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("delete error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
		}

		resp, err = client.Get(ts.URL + "/api/analyses/" + swing.ID)
		if err != nil {
			t.Fatalf("get error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
	})
}

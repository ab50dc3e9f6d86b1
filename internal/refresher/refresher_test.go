package refresher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/proxy-dashboard/internal/metrics"
	"github.com/angeloszaimis/proxy-dashboard/internal/refresher"
	"github.com/angeloszaimis/proxy-dashboard/internal/view"
)

var _ = Describe("Refresher", func() {
	var (
		mu         sync.Mutex
		statusCode int
		body       string
		server     *httptest.Server
		dashboard  *view.Dashboard
		r          *refresher.Refresher
		log        *slog.Logger
		ctx        context.Context
	)

	respond := func(code int, payload string) {
		mu.Lock()
		defer mu.Unlock()
		statusCode = code
		body = payload
	}

	BeforeEach(func() {
		ctx = context.Background()
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		respond(http.StatusOK, `{}`)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path != "/api/status" || req.Method != http.MethodGet {
				http.NotFound(w, req)
				return
			}

			mu.Lock()
			code, payload := statusCode, body
			mu.Unlock()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			w.Write([]byte(payload))
		}))

		dashboard = view.NewDashboard(view.NewMessages("en"))
		r = refresher.New(log, server.Client(), server.URL+"/api/status", dashboard, dashboard.Messages(), nil)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Refresh", func() {
		Context("with a best proxy that matches a result", func() {
			BeforeEach(func() {
				respond(http.StatusOK, `{
					"last_update": "2024-05-01 10:00:00",
					"best_proxy": {"url": "http://b:8080", "status": "ok", "delay": 42},
					"all_results": [
						{"url": "http://a:8080", "status": "error_timeout"},
						{"url": "http://b:8080", "status": "ok", "delay": 42},
						{"url": "http://c:8080", "status": "slow", "delay": 3100}
					]
				}`)
			})

			It("should render the summary fields", func() {
				Expect(r.Refresh(ctx)).To(Succeed())

				page := dashboard.Page()
				Expect(page.UpdateTime).To(Equal(view.Field{Text: "2024-05-01 10:00:00"}))
				Expect(page.BestProxy).To(Equal(view.Field{Text: "http://b:8080"}))
			})

			It("should highlight only the best row", func() {
				Expect(r.Refresh(ctx)).To(Succeed())

				rows := dashboard.Page().Rows
				Expect(rows).To(HaveLen(3))
				Expect(rows[0].Class).To(Equal(view.ClassNone))
				Expect(rows[1].Class).To(Equal(view.ClassBest))
				Expect(rows[2].Class).To(Equal(view.ClassNone))
			})

			It("should render rows in server order with styled status cells", func() {
				Expect(r.Refresh(ctx)).To(Succeed())

				want := []view.Row{
					{Cells: []view.Cell{{Text: "http://a:8080"}, {Text: "error_timeout", Class: view.ClassError}, {Text: "N/A"}}},
					{Class: view.ClassBest, Cells: []view.Cell{{Text: "http://b:8080"}, {Text: "ok"}, {Text: "42"}}},
					{Cells: []view.Cell{{Text: "http://c:8080"}, {Text: "slow", Class: view.ClassSlow}, {Text: "3100"}}},
				}
				Expect(cmp.Diff(want, dashboard.Page().Rows)).To(BeEmpty())
			})

			It("should clear the error style left by a previous refresh", func() {
				dashboard.SetBestProxy("No proxy available", view.ClassError)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().BestProxy.Class).To(Equal(view.ClassNone))
			})
		})

		Context("without a usable best proxy", func() {
			It("should show the placeholder when best_proxy is absent", func() {
				respond(http.StatusOK, `{"all_results": [{"url": "http://a:8080", "status": "ok"}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())

				page := dashboard.Page()
				Expect(page.BestProxy).To(Equal(view.Field{Text: "No proxy available", Class: view.ClassError}))
				Expect(page.Rows[0].Class).To(Equal(view.ClassNone))
			})

			It("should show the placeholder when best_proxy is null", func() {
				respond(http.StatusOK, `{"best_proxy": null, "all_results": [{"url": "http://a:8080", "status": "ok"}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().BestProxy.Class).To(Equal(view.ClassError))
			})

			It("should not highlight rows when best_proxy has no url", func() {
				respond(http.StatusOK, `{"best_proxy": {"status": "ok"}, "all_results": [{"status": "ok"}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())

				page := dashboard.Page()
				Expect(page.BestProxy.Text).To(Equal("No proxy available"))
				Expect(page.Rows[0].Class).To(Equal(view.ClassNone))
			})

			It("should not highlight anything when best_proxy matches no result", func() {
				respond(http.StatusOK, `{"best_proxy": {"url": "http://z:8080"}, "all_results": [{"url": "http://a:8080", "status": "ok"}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())

				page := dashboard.Page()
				Expect(page.BestProxy).To(Equal(view.Field{Text: "http://z:8080"}))
				Expect(page.Rows[0].Class).To(Equal(view.ClassNone))
			})
		})

		Context("with a missing last_update", func() {
			It("should show the unknown placeholder", func() {
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().UpdateTime.Text).To(Equal("Unknown"))
			})

			It("should treat an empty last_update as missing", func() {
				respond(http.StatusOK, `{"last_update": ""}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().UpdateTime.Text).To(Equal("Unknown"))
			})
		})

		Context("with no results", func() {
			want := []view.Row{{Cells: []view.Cell{{Text: "No data", ColSpan: view.Columns, Centered: true}}}}

			It("should render one spanning row for an empty list", func() {
				respond(http.StatusOK, `{"all_results": []}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(cmp.Diff(want, dashboard.Page().Rows)).To(BeEmpty())
			})

			It("should render one spanning row when all_results is absent", func() {
				respond(http.StatusOK, `{"last_update": "2024-05-01 10:00:00"}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(cmp.Diff(want, dashboard.Page().Rows)).To(BeEmpty())
			})

			It("should replace rows from a previous refresh", func() {
				respond(http.StatusOK, `{"all_results": [{"url": "a", "status": "ok"}, {"url": "b", "status": "ok"}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().Rows).To(HaveLen(2))

				respond(http.StatusOK, `{"all_results": []}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(cmp.Diff(want, dashboard.Page().Rows)).To(BeEmpty())
			})
		})

		Context("status styling", func() {
			DescribeTable("should style the status cell",
				func(s string, class view.Class) {
					respond(http.StatusOK, `{"all_results": [{"url": "a", "status": "`+s+`"}]}`)
					Expect(r.Refresh(ctx)).To(Succeed())
					Expect(dashboard.Page().Rows[0].Cells[1]).To(Equal(view.Cell{Text: s, Class: class}))
				},
				Entry("ok is unstyled", "ok", view.ClassNone),
				Entry("error prefix is an error", "error_timeout", view.ClassError),
				Entry("bare error is an error", "error", view.ClassError),
				Entry("slow is slow", "slow", view.ClassSlow),
				Entry("other values are slow", "degraded", view.ClassSlow),
				Entry("prefix match is case sensitive", "Error", view.ClassSlow),
				Entry("OK is not ok", "OK", view.ClassSlow),
			)
		})

		Context("delay cell", func() {
			It("should render N/A when delay is absent", func() {
				respond(http.StatusOK, `{"all_results": [{"url": "a", "status": "ok"}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().Rows[0].Cells[2].Text).To(Equal("N/A"))
			})

			It("should render N/A when delay is null", func() {
				respond(http.StatusOK, `{"all_results": [{"url": "a", "status": "ok", "delay": null}]}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				Expect(dashboard.Page().Rows[0].Cells[2].Text).To(Equal("N/A"))
			})

			It("should render the delay as a plain number", func() {
				respond(http.StatusOK, `{"all_results": [
					{"url": "a", "status": "ok", "delay": 42},
					{"url": "b", "status": "ok", "delay": 0},
					{"url": "c", "status": "ok", "delay": 42.0},
					{"url": "d", "status": "ok", "delay": 1e2}
				]}`)
				Expect(r.Refresh(ctx)).To(Succeed())
				rows := dashboard.Page().Rows
				Expect(rows[0].Cells[2].Text).To(Equal("42"))
				Expect(rows[1].Cells[2].Text).To(Equal("0"))
				Expect(rows[2].Cells[2].Text).To(Equal("42"))
				Expect(rows[3].Cells[2].Text).To(Equal("100"))
			})
		})

		Context("localized placeholders", func() {
			It("should use the configured language", func() {
				zh := view.NewDashboard(view.NewMessages("zh"))
				r = refresher.New(log, server.Client(), server.URL+"/api/status", zh, zh.Messages(), nil)

				Expect(r.Refresh(ctx)).To(Succeed())

				page := zh.Page()
				Expect(page.UpdateTime.Text).To(Equal("未知"))
				Expect(page.BestProxy.Text).To(Equal("无可用代理"))
				Expect(page.Rows[0].Cells[0].Text).To(Equal("暂无数据"))
			})
		})
	})

	Describe("failures", func() {
		BeforeEach(func() {
			respond(http.StatusOK, `{
				"last_update": "2024-05-01 10:00:00",
				"best_proxy": {"url": "http://b:8080"},
				"all_results": [{"url": "http://b:8080", "status": "ok", "delay": 42}]
			}`)
			Expect(r.Refresh(ctx)).To(Succeed())
		})

		It("should return a FetchError for a non-2xx response and keep the table", func() {
			before := dashboard.Page().Rows
			respond(http.StatusInternalServerError, `{"error": "boom"}`)

			err := r.Refresh(ctx)

			var fetchErr *refresher.FetchError
			Expect(errors.As(err, &fetchErr)).To(BeTrue())
			Expect(fetchErr.StatusCode).To(Equal(http.StatusInternalServerError))

			page := dashboard.Page()
			Expect(page.UpdateTime.Text).To(Equal("Load failed"))
			Expect(page.BestProxy.Text).To(Equal("Load failed"))
			Expect(cmp.Diff(before, page.Rows)).To(BeEmpty())
		})

		It("should treat 404 as a fetch failure", func() {
			respond(http.StatusNotFound, `{"error": "status file not found"}`)

			var fetchErr *refresher.FetchError
			Expect(errors.As(r.Refresh(ctx), &fetchErr)).To(BeTrue())
		})

		It("should return a ParseError for an invalid body and keep the table", func() {
			before := dashboard.Page().Rows
			respond(http.StatusOK, `not json`)

			err := r.Refresh(ctx)

			var parseErr *refresher.ParseError
			Expect(errors.As(err, &parseErr)).To(BeTrue())

			page := dashboard.Page()
			Expect(page.UpdateTime.Text).To(Equal("Load failed"))
			Expect(page.BestProxy.Text).To(Equal("Load failed"))
			Expect(cmp.Diff(before, page.Rows)).To(BeEmpty())
		})

		It("should return a ParseError for a malformed shape", func() {
			respond(http.StatusOK, `{"all_results": [{"url": "a"}]}`)

			var parseErr *refresher.ParseError
			Expect(errors.As(r.Refresh(ctx), &parseErr)).To(BeTrue())
			Expect(dashboard.Page().Rows[0].Cells[0].Text).To(Equal("http://b:8080"))
		})

		It("should keep the best proxy style on failure", func() {
			respond(http.StatusOK, `{"all_results": []}`)
			Expect(r.Refresh(ctx)).To(Succeed())
			Expect(dashboard.Page().BestProxy.Class).To(Equal(view.ClassError))

			respond(http.StatusBadGateway, ``)
			Expect(r.Refresh(ctx)).NotTo(Succeed())
			Expect(dashboard.Page().BestProxy).To(Equal(view.Field{Text: "Load failed", Class: view.ClassError}))
		})

		It("should return a FetchError when the endpoint is unreachable", func() {
			server.Close()

			var fetchErr *refresher.FetchError
			Expect(errors.As(r.Refresh(ctx), &fetchErr)).To(BeTrue())
			Expect(fetchErr.StatusCode).To(Equal(0))
			Expect(dashboard.Page().UpdateTime.Text).To(Equal("Load failed"))
		})

		It("should recover on the next successful refresh", func() {
			respond(http.StatusServiceUnavailable, ``)
			Expect(r.Refresh(ctx)).NotTo(Succeed())

			respond(http.StatusOK, `{"last_update": "2024-05-01 11:00:00"}`)
			Expect(r.Refresh(ctx)).To(Succeed())
			Expect(dashboard.Page().UpdateTime.Text).To(Equal("2024-05-01 11:00:00"))
		})
	})

	Describe("Trigger", func() {
		It("should not block the caller", func() {
			var hits atomic.Int32
			release := make(chan struct{})
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				hits.Add(1)
				<-release
				w.Write([]byte(`{"last_update": "later"}`))
			}))
			defer slow.Close()

			r = refresher.New(log, slow.Client(), slow.URL, dashboard, dashboard.Messages(), nil)

			start := time.Now()
			done := r.Trigger(ctx)
			Expect(time.Since(start)).To(BeNumerically("<", 100*time.Millisecond))

			Eventually(hits.Load).Should(Equal(int32(1)))
			Expect(done).NotTo(BeClosed())

			close(release)
			Eventually(done).Should(BeClosed())
			Expect(dashboard.Page().UpdateTime.Text).To(Equal("later"))
		})

		It("should run overlapping refreshes independently", func() {
			var hits atomic.Int32
			release := make(chan struct{})
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				hits.Add(1)
				<-release
				w.Write([]byte(`{}`))
			}))
			defer slow.Close()

			r = refresher.New(log, slow.Client(), slow.URL, dashboard, dashboard.Messages(), nil)

			first := r.Trigger(ctx)
			second := r.Trigger(ctx)

			Eventually(hits.Load).Should(Equal(int32(2)))

			close(release)
			Eventually(first).Should(BeClosed())
			Eventually(second).Should(BeClosed())
		})
	})

	Describe("metrics", func() {
		It("should emit refresh events", func() {
			collectorCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			collector := metrics.NewCollector(10, log)
			collector.Start(collectorCtx)

			endpoint := server.URL + "/api/status"
			r = refresher.New(log, server.Client(), endpoint, dashboard, dashboard.Messages(), collector)

			Expect(r.Refresh(ctx)).To(Succeed())
			respond(http.StatusOK, `[]`)
			Expect(r.Refresh(ctx)).NotTo(Succeed())

			Eventually(func() int64 {
				return collector.Snapshot().Endpoints[endpoint].Failed
			}).Should(Equal(int64(1)))

			em := collector.Snapshot().Endpoints[endpoint]
			Expect(em.Started).To(Equal(int64(2)))
			Expect(em.Succeeded).To(Equal(int64(1)))
			Expect(em.Failures[metrics.FailureParse]).To(Equal(int64(1)))
		})
	})
})

package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/formweave/extraction-planner/internal/config"
	"github.com/formweave/extraction-planner/internal/extraction"
	"github.com/formweave/extraction-planner/internal/service"
	"github.com/formweave/extraction-planner/internal/store"
	"github.com/formweave/extraction-planner/internal/store/model"
)

const testFormCode = "hazard_report"

// fixedExecutor returns canned pipeline outputs without a model call.
// When block is set, CallModel waits on it, keeping a worker busy.
type fixedExecutor struct {
	response string
	block    chan struct{}
}

func (e *fixedExecutor) BuildPrompt(utterance string) (string, error) {
	return "prompt: " + utterance, nil
}

func (e *fixedExecutor) CallModel(ctx context.Context, prompt string) (string, error) {
	if e.block != nil {
		<-e.block
	}
	return e.response, nil
}

func (e *fixedExecutor) ParseResponse(raw string) (extraction.Fields, error) {
	return extraction.ParseJSONResponse(raw)
}

func (e *fixedExecutor) Validate(fields extraction.Fields) (extraction.Fields, error) {
	return fields, nil
}

func (e *fixedExecutor) PostProcess(validated extraction.Fields, utterance string) (extraction.Fields, error) {
	return validated, nil
}

var _ = Describe("task service", Ordered, func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		executor *fixedExecutor
		extSrv   *service.ExtractionService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())

		executor = &fixedExecutor{response: `{"underCheckOrg": "三号车间"}`}
		registry := extraction.NewRegistry()
		Expect(registry.Register(testFormCode, func() (extraction.Executor, error) {
			return executor, nil
		})).To(BeNil())
		extSrv = service.NewExtractionService(registry)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM tasks;")
		executor.response = `{"underCheckOrg": "三号车间"}`
	})

	newTaskService := func(ttl time.Duration) *service.TaskService {
		srv, err := service.NewTaskService(s, extSrv, 16, ttl)
		Expect(err).To(BeNil())
		Expect(srv.Start(context.Background(), 1)).To(BeNil())
		DeferCleanup(srv.Stop)
		return srv
	}

	Context("create", func() {
		It("returns a pending task and completes it in the background", func() {
			srv := newTaskService(24 * time.Hour)

			view, err := srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, nil)
			Expect(err).To(BeNil())
			Expect(view.Status).To(Equal(model.TaskStatusPending))
			Expect(view.ExpiresAt).To(BeTemporally("~", time.Now().Add(24*time.Hour), time.Minute))

			Eventually(func() string {
				got, err := srv.GetTask(context.TODO(), view.ID.String())
				if err != nil {
					return ""
				}
				return got.Status
			}, 5*time.Second, 10*time.Millisecond).Should(Equal(model.TaskStatusSucceeded))

			got, err := srv.GetTask(context.TODO(), view.ID.String())
			Expect(err).To(BeNil())
			Expect(got.Result).To(HaveKeyWithValue("underCheckOrg", "三号车间"))
			Expect(got.CompletedAt).ToNot(BeNil())
			Expect(got.Error).To(BeNil())
		})

		It("rejects an unknown form code", func() {
			srv := newTaskService(24 * time.Hour)

			_, err := srv.CreateTask(context.TODO(), "some text", "unknown_form", nil)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrUnknownFormCode{}))
		})

		It("records a pipeline failure on the task", func() {
			srv := newTaskService(24 * time.Hour)
			executor.response = "无法提取字段"

			view, err := srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, nil)
			Expect(err).To(BeNil())

			Eventually(func() string {
				got, err := srv.GetTask(context.TODO(), view.ID.String())
				if err != nil {
					return ""
				}
				return got.Status
			}, 5*time.Second, 10*time.Millisecond).Should(Equal(model.TaskStatusFailed))

			got, err := srv.GetTask(context.TODO(), view.ID.String())
			Expect(err).To(BeNil())
			Expect(got.Error).ToNot(BeNil())
			Expect(*got.Error).To(ContainSubstring("INVALID_RESPONSE"))
		})

		It("marks a task failed when the queue rejects it", func() {
			block := make(chan struct{})
			blocking := &fixedExecutor{response: `{"underCheckOrg": "三号车间"}`, block: block}
			registry := extraction.NewRegistry()
			Expect(registry.Register(testFormCode, func() (extraction.Executor, error) {
				return blocking, nil
			})).To(BeNil())

			srv, err := service.NewTaskService(s, service.NewExtractionService(registry), 1, 24*time.Hour)
			Expect(err).To(BeNil())
			Expect(srv.Start(context.Background(), 1)).To(BeNil())
			DeferCleanup(srv.Stop)
			DeferCleanup(func() { close(block) })

			first, err := srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, nil)
			Expect(err).To(BeNil())

			// the worker must hold the first task before the queue fills
			Eventually(func() string {
				got, err := srv.GetTask(context.TODO(), first.ID.String())
				if err != nil {
					return ""
				}
				return got.Status
			}, 5*time.Second, 10*time.Millisecond).Should(Equal(model.TaskStatusRunning))

			_, err = srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, nil)
			Expect(err).To(BeNil())

			_, err = srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, nil)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrTaskQueueFull{}))

			var rejected model.Task
			Expect(gormdb.First(&rejected, "status = ?", model.TaskStatusFailed).Error).To(BeNil())
			Expect(rejected.Error).ToNot(BeNil())
			Expect(*rejected.Error).To(ContainSubstring("not queued"))
			Expect(rejected.CompletedAt).ToNot(BeNil())
		})

		It("notifies the callback url on completion", func() {
			var mu sync.Mutex
			var payload map[string]any
			received := make(chan struct{})
			callbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				defer mu.Unlock()
				_ = json.NewDecoder(r.Body).Decode(&payload)
				close(received)
				w.WriteHeader(http.StatusOK)
			}))
			DeferCleanup(callbackSrv.Close)

			srv := newTaskService(24 * time.Hour)
			callbackURL := callbackSrv.URL
			view, err := srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, &callbackURL)
			Expect(err).To(BeNil())

			Eventually(received, 5*time.Second).Should(BeClosed())

			mu.Lock()
			defer mu.Unlock()
			Expect(payload["task_id"]).To(Equal(view.ID.String()))
			Expect(payload["status"]).To(Equal(model.TaskStatusSucceeded))
		})
	})

	Context("get", func() {
		It("rejects a malformed task id", func() {
			srv := newTaskService(24 * time.Hour)

			_, err := srv.GetTask(context.TODO(), "not-a-uuid")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInvalidTaskID{}))
		})

		It("reports a missing task", func() {
			srv := newTaskService(24 * time.Hour)

			_, err := srv.GetTask(context.TODO(), "a9f1cf39-b6b8-4b60-8466-fee898b3e2a5")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrTaskNotFound{}))
		})

		It("classifies an expired task at read time without mutating it", func() {
			srv := newTaskService(50 * time.Millisecond)

			view, err := srv.CreateTask(context.TODO(), "三号车间发现隐患", testFormCode, nil)
			Expect(err).To(BeNil())

			Eventually(func() string {
				var stored model.Task
				if err := gormdb.First(&stored, "id = ?", view.ID).Error; err != nil {
					return ""
				}
				return stored.Status
			}, 5*time.Second, 10*time.Millisecond).Should(Equal(model.TaskStatusSucceeded))

			Eventually(func() string {
				got, err := srv.GetTask(context.TODO(), view.ID.String())
				if err != nil {
					return ""
				}
				return got.Status
			}, 5*time.Second, 10*time.Millisecond).Should(Equal(model.TaskStatusExpired))

			got, err := srv.GetTask(context.TODO(), view.ID.String())
			Expect(err).To(BeNil())
			Expect(got.Result).To(HaveKeyWithValue("underCheckOrg", "三号车间"))
			Expect(got.CompletedAt).ToNot(BeNil())

			var stored model.Task
			Expect(gormdb.First(&stored, "id = ?", view.ID).Error).To(BeNil())
			Expect(stored.Status).To(Equal(model.TaskStatusSucceeded))
		})
	})
})

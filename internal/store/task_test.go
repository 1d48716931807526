package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/formweave/extraction-planner/internal/config"
	st "github.com/formweave/extraction-planner/internal/store"
	"github.com/formweave/extraction-planner/internal/store/model"
)

var _ = Describe("task store", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM tasks;")
	})

	newTask := func() model.Task {
		return model.Task{
			ID:        uuid.New(),
			Status:    model.TaskStatusPending,
			Utterance: "三号车间发现隐患",
			FormCode:  "hazard_report",
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
	}

	Context("create", func() {
		It("stores a pending task", func() {
			task, err := s.Task().Create(context.TODO(), newTask())
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusPending))
			Expect(task.CreatedAt).ToNot(BeZero())
		})

		It("rejects a duplicate id", func() {
			task := newTask()
			_, err := s.Task().Create(context.TODO(), task)
			Expect(err).To(BeNil())

			_, err = s.Task().Create(context.TODO(), task)
			Expect(err).To(MatchError(st.ErrDuplicateKey))
		})
	})

	Context("get", func() {
		It("returns a stored task", func() {
			created, err := s.Task().Create(context.TODO(), newTask())
			Expect(err).To(BeNil())

			task, err := s.Task().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(task.ID).To(Equal(created.ID))
			Expect(task.Utterance).To(Equal("三号车间发现隐患"))
			Expect(task.FormCode).To(Equal("hazard_report"))
		})

		It("reports a missing task", func() {
			_, err := s.Task().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})

	Context("update", func() {
		It("patches only the given fields", func() {
			created, err := s.Task().Create(context.TODO(), newTask())
			Expect(err).To(BeNil())

			running := model.TaskStatusRunning
			updated, err := s.Task().Update(context.TODO(), created.ID, st.TaskPatch{Status: &running})
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.TaskStatusRunning))

			task, err := s.Task().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusRunning))
			Expect(task.Utterance).To(Equal("三号车间发现隐患"))
			Expect(task.CompletedAt).To(BeNil())
		})

		It("stores the terminal result", func() {
			created, err := s.Task().Create(context.TODO(), newTask())
			Expect(err).To(BeNil())

			succeeded := model.TaskStatusSucceeded
			completedAt := time.Now()
			_, err = s.Task().Update(context.TODO(), created.ID, st.TaskPatch{
				Status:      &succeeded,
				Result:      []byte(`{"underCheckOrg":"三号车间"}`),
				CompletedAt: &completedAt,
			})
			Expect(err).To(BeNil())

			task, err := s.Task().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusSucceeded))
			Expect(task.Result).To(MatchJSON(`{"underCheckOrg":"三号车间"}`))
			Expect(task.CompletedAt).ToNot(BeNil())
		})

		It("reports a missing task", func() {
			failed := model.TaskStatusFailed
			_, err := s.Task().Update(context.TODO(), uuid.New(), st.TaskPatch{Status: &failed})
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})
	})
})

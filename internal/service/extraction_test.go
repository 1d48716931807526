package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/formweave/extraction-planner/internal/extraction"
	"github.com/formweave/extraction-planner/internal/service"
)

var _ = Describe("extraction service", func() {
	var (
		executor *fixedExecutor
		srv      *service.ExtractionService
	)

	BeforeEach(func() {
		executor = &fixedExecutor{response: `{"underCheckOrg": "三号车间"}`}
		registry := extraction.NewRegistry()
		Expect(registry.Register(testFormCode, func() (extraction.Executor, error) {
			return executor, nil
		})).To(BeNil())
		srv = service.NewExtractionService(registry)
	})

	Context("extract", func() {
		It("returns the extracted fields", func() {
			result, err := srv.Extract(context.TODO(), "三号车间发现隐患", testFormCode)
			Expect(err).To(BeNil())
			Expect(result).To(HaveKeyWithValue("underCheckOrg", "三号车间"))
		})

		It("rejects an unknown form code before running the pipeline", func() {
			_, err := srv.Extract(context.TODO(), "some text", "unknown_form")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrUnknownFormCode{}))
		})

		It("surfaces the pipeline error code", func() {
			executor.response = "无法提取字段"

			_, err := srv.Extract(context.TODO(), "三号车间发现隐患", testFormCode)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrExtractionFailed{}))

			failed := err.(*service.ErrExtractionFailed)
			Expect(failed.Code).To(Equal(extraction.CodeInvalidResponse))
		})
	})

	Context("codes", func() {
		It("lists the registered form codes", func() {
			Expect(srv.Codes()).To(Equal([]string{testFormCode}))
			Expect(srv.IsRegistered(testFormCode)).To(BeTrue())
			Expect(srv.IsRegistered("unknown_form")).To(BeFalse())
		})
	})
})

package access_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/chitfund-portal/internal/access"
	"github.com/frahmantamala/chitfund-portal/internal/session"
)

func TestAccess(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Access Suite")
}

func score(n int) *int { return &n }

var _ = Describe("AccessRequest decision", func() {
	decide := func(t access.RequestType, s *int) access.Status {
		req := &access.AccessRequest{RequestType: t, MCQScore: s}
		return req.Decide()
	}

	It("always approves company requests", func() {
		Expect(decide(access.RequestTypeCompany, nil)).To(Equal(access.StatusApproved))
		Expect(decide(access.RequestTypeCompany, score(0))).To(Equal(access.StatusApproved))
		Expect(decide(access.RequestTypeCompany, score(100))).To(Equal(access.StatusApproved))
	})

	DescribeTable("threshold boundaries",
		func(t access.RequestType, s *int, expected access.Status) {
			Expect(decide(t, s)).To(Equal(expected))
		},
		Entry("foreman at 79", access.RequestTypeForeman, score(79), access.StatusPending),
		Entry("foreman at 80", access.RequestTypeForeman, score(80), access.StatusApproved),
		Entry("foreman without score", access.RequestTypeForeman, nil, access.StatusPending),
		Entry("user at 69", access.RequestTypeUser, score(69), access.StatusPending),
		Entry("user at 70", access.RequestTypeUser, score(70), access.StatusApproved),
		Entry("user at 100", access.RequestTypeUser, score(100), access.StatusApproved),
		Entry("user without score", access.RequestTypeUser, nil, access.StatusPending),
	)

	It("never changes a decided status", func() {
		req := &access.AccessRequest{RequestType: access.RequestTypeUser, MCQScore: score(10)}
		Expect(req.Decide()).To(Equal(access.StatusPending))

		req.MCQScore = score(95)
		Expect(req.Decide()).To(Equal(access.StatusPending))
	})

	It("grants full access only on the admin path", func() {
		Expect((&access.AccessRequest{RequestType: access.RequestTypeAdmin}).AccessLevel()).To(Equal(session.AccessLevelFull))
		for _, t := range []access.RequestType{access.RequestTypeCompany, access.RequestTypeUser, access.RequestTypeForeman} {
			Expect((&access.AccessRequest{RequestType: t}).AccessLevel()).To(Equal(session.AccessLevelLimited))
		}
	})
})

var _ = Describe("SubmitAccessRequestDTO", func() {
	valid := func() access.SubmitAccessRequestDTO {
		return access.SubmitAccessRequestDTO{
			RequestType:   "user",
			ContactPerson: "Lakshmi",
			Email:         "lakshmi@example.com",
			Phone:         "+91 98450 00000",
			Purpose:       "join a scheme",
		}
	}

	It("accepts a complete request", func() {
		Expect(valid().Validate()).To(Succeed())
	})

	It("rejects the internal admin type", func() {
		dto := valid()
		dto.RequestType = "admin"
		Expect(dto.Validate()).To(HaveOccurred())
	})

	It("rejects a score outside 0-100", func() {
		dto := valid()
		dto.MCQScore = score(101)
		Expect(dto.Validate()).To(HaveOccurred())
	})

	It("rejects a malformed email", func() {
		dto := valid()
		dto.Email = "not-an-email"
		Expect(dto.Validate()).To(HaveOccurred())
	})
})

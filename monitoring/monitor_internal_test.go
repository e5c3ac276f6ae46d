package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleStruct struct {
	Field1 int
	Field2 string
	Field3 *sampleStruct
	Field4 []sampleStruct
}

type sampleComponent struct {
	name  string
	state sampleStruct
}

func (c *sampleComponent) Name() string {
	return c.name
}

func (c *sampleComponent) Snapshot() any {
	state := c.state
	return &state
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		server *httptest.Server
	)

	get := func(path string) (int, []byte) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	BeforeEach(func() {
		m = NewMonitor()
		server = httptest.NewServer(m.router())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should ignore privileged port numbers", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should list components", func() {
		m.RegisterComponent(&sampleComponent{name: "Sim"})

		code, body := get("/api/list_components")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`["Sim"]`))
	})

	It("should serialize a component", func() {
		m.RegisterComponent(&sampleComponent{
			name:  "Sim",
			state: sampleStruct{Field1: 42},
		})

		code, body := get("/api/component/Sim")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())
	})

	It("should return 404 for unknown components", func() {
		code, _ := get("/api/component/Nope")

		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should return a field of a component", func() {
		m.RegisterComponent(&sampleComponent{
			name: "Sim",
			state: sampleStruct{
				Field4: []sampleStruct{{Field2: "abc"}},
			},
		})

		code, body := get("/api/field/Sim/Field4.0.Field2")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`"abc"`))

		code, _ = get("/api/field/Sim/Field9")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should report progress", func() {
		bar := m.CreateProgressBar("trace", 10)
		bar.IncrementFinished(4)

		code, body := get("/api/progress")
		Expect(code).To(Equal(http.StatusOK))

		var bars []progressBarState
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("trace"))
		Expect(bars[0].Total).To(Equal(uint64(10)))
		Expect(bars[0].Finished).To(Equal(uint64(4)))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(string(body)).To(Equal("[]"))
	})

	It("should report resources", func() {
		code, body := get("/api/resource")
		Expect(code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the web page", func() {
		code, body := get("/")
		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(HavePrefix("<!DOCTYPE html>"))
	})
})

var _ = Describe("walkFields", func() {
	It("should walk int fields", func() {
		s := &sampleStruct{Field1: 1}

		elem, err := walkFields(s, "Field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk struct pointers", func() {
		s := &sampleStruct{Field3: &sampleStruct{Field1: 1}}

		elem, err := walkFields(s, "Field3.Field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slice recursively", func() {
		s := sampleStruct{
			Field4: []sampleStruct{{
				Field4: []sampleStruct{{Field1: 1}},
			}, {}},
		}

		elem, err := walkFields(s, "Field4.0.Field4.0.Field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should fail on bad paths", func() {
		s := sampleStruct{Field4: []sampleStruct{{}}}

		_, err := walkFields(s, "Field4.3")
		Expect(err).To(HaveOccurred())

		_, err = walkFields(s, "Field1.x")
		Expect(err).To(HaveOccurred())

		_, err = walkFields(s, "Nope")
		Expect(err).To(HaveOccurred())
	})
})

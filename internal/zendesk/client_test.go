package zendesk_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoresponder/internal/zendesk"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		mux    *http.ServeMux
		client zendesk.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		var err error
		client, err = zendesk.NewClient(zendesk.Config{
			User:    "agent@acme.test",
			Token:   "secret",
			BaseURL: server.URL,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires credentials", func() {
		_, err := zendesk.NewClient(zendesk.Config{Subdomain: "acme"})
		Expect(err).To(HaveOccurred())
	})

	It("authenticates with the API token scheme", func() {
		mux.HandleFunc("/api/v2/tickets/7.json", func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			Expect(ok).To(BeTrue())
			Expect(user).To(Equal("agent@acme.test/token"))
			Expect(pass).To(Equal("secret"))
			fmt.Fprint(w, `{"ticket":{"id":7,"subject":"Login broken","requester_id":42}}`)
		})

		ticket, err := client.GetTicket(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(ticket.Subject).To(Equal("Login broken"))
		Expect(ticket.RequesterID).To(Equal(int64(42)))
	})

	It("follows comment pagination in order", func() {
		mux.HandleFunc("/api/v2/tickets/7/comments.json", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "2" {
				fmt.Fprint(w, `{"comments":[{"id":3,"author_id":1,"body":"third"}],"next_page":null}`)
				return
			}
			fmt.Fprintf(w, `{"comments":[{"id":1,"author_id":1,"body":"first"},{"id":2,"author_id":2,"body":"second"}],"next_page":%q}`,
				server.URL+"/api/v2/tickets/7/comments.json?page=2")
		})

		comments, err := client.GetComments(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(comments).To(HaveLen(3))
		Expect(comments[0].Body).To(Equal("first"))
		Expect(comments[2].Body).To(Equal("third"))
	})

	It("refuses next_page links to another host", func() {
		mux.HandleFunc("/api/v2/tickets/7/comments.json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"comments":[],"next_page":"https://evil.example/steal"}`)
		})

		_, err := client.GetComments(ctx, 7)
		Expect(err).To(MatchError(ContainSubstring("leaves")))
	})

	It("decodes users, identities and organizations", func() {
		mux.HandleFunc("/api/v2/users/42.json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"user":{"id":42,"name":"Jane","email":"jane@acme.test","role":"end-user","organization_id":9,"user_fields":{"plan":"pro"}}}`)
		})
		mux.HandleFunc("/api/v2/users/42/identities.json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"identities":[{"id":1,"user_id":42,"type":"email","value":"jane@acme.test","primary":true}]}`)
		})
		mux.HandleFunc("/api/v2/organizations/9.json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"organization":{"id":9,"name":"Acme","tags":["vip"],"notes":"key account","organization_fields":{"tier":"gold"}}}`)
		})

		user, err := client.GetUser(ctx, 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(user.IsEndUser()).To(BeTrue())
		Expect(*user.OrganizationID).To(Equal(int64(9)))
		Expect(user.UserFields).To(HaveKeyWithValue("plan", "pro"))

		identities, err := client.GetUserIdentities(ctx, 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(identities).To(HaveLen(1))
		Expect(identities[0].Value).To(Equal("jane@acme.test"))

		org, err := client.GetOrganization(ctx, 9)
		Expect(err).NotTo(HaveOccurred())
		Expect(org.Name).To(Equal("Acme"))
		Expect(org.OrganizationFields).To(HaveKeyWithValue("tier", "gold"))
	})

	It("returns an APIError for non-2xx reads", func() {
		mux.HandleFunc("/api/v2/users/5.json", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"RecordNotFound"}`, http.StatusNotFound)
		})

		_, err := client.GetUser(ctx, 5)
		Expect(err).To(HaveOccurred())
		Expect(zendesk.IsNotFound(err)).To(BeTrue())
	})

	Describe("UpdateTicket", func() {
		It("sends the comment payload", func() {
			var got map[string]map[string]map[string]any
			mux.HandleFunc("/api/v2/tickets/7.json", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPut))
				body, _ := io.ReadAll(r.Body)
				Expect(json.Unmarshal(body, &got)).To(Succeed())
				fmt.Fprint(w, `{"ticket":{"id":7}}`)
			})

			authorID := int64(99)
			err := client.UpdateTicket(ctx, 7, zendesk.TicketUpdate{Comment: zendesk.CommentInput{
				Body:     "Hello",
				Public:   false,
				AuthorID: &authorID,
			}})
			Expect(err).NotTo(HaveOccurred())

			comment := got["ticket"]["comment"]
			Expect(comment).To(HaveKeyWithValue("body", "Hello"))
			Expect(comment).To(HaveKeyWithValue("public", false))
			Expect(comment).To(HaveKeyWithValue("author_id", BeNumerically("==", 99)))
		})

		It("omits author_id when no agent actor is configured", func() {
			var raw string
			mux.HandleFunc("/api/v2/tickets/7.json", func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				raw = string(body)
			})

			Expect(client.UpdateTicket(ctx, 7, zendesk.TicketUpdate{Comment: zendesk.CommentInput{Body: "x", Public: true}})).To(Succeed())
			Expect(raw).NotTo(ContainSubstring("author_id"))
		})

		It("does not retry failed updates", func() {
			var calls atomic.Int32
			mux.HandleFunc("/api/v2/tickets/7.json", func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			})

			err := client.UpdateTicket(ctx, 7, zendesk.TicketUpdate{Comment: zendesk.CommentInput{Body: "x"}})
			Expect(err).To(HaveOccurred())
			Expect(calls.Load()).To(Equal(int32(1)))
		})
	})
})

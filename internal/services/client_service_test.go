package services

import (
	"errors"
	"testing"

	"gioservice_backend/internal/models"
)

func TestCreateClientNormalizesContact(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo, newFakeJobRepo(), nil, "US")

	cases := []struct {
		name      string
		phone     string
		wantPhone string
	}{
		{"parseable phone", "(202) 456-1111", "+12024561111"},
		{"unparseable phone kept", "  ask for Joe at the shop ", "ask for Joe at the shop"},
	}
	for _, tc := range cases {
		client, err := svc.CreateClient(CreateClientRequest{
			FullName: "  Rosa Diaz ",
			Phone:    strP(tc.phone),
			Email:    strP(" Rosa@Example.com "),
		})
		if err != nil {
			t.Fatalf("%s: create client: %v", tc.name, err)
		}
		if client.FullName != "Rosa Diaz" {
			t.Fatalf("%s: name %q", tc.name, client.FullName)
		}
		if client.Phone == nil || *client.Phone != tc.wantPhone {
			t.Fatalf("%s: phone %v, want %q", tc.name, client.Phone, tc.wantPhone)
		}
		if client.Email == nil || *client.Email != "rosa@example.com" {
			t.Fatalf("%s: email %v", tc.name, client.Email)
		}
	}
}

func TestCreateClientValidation(t *testing.T) {
	svc := NewClientService(newFakeClientRepo(), newFakeJobRepo(), nil, "US")

	if _, err := svc.CreateClient(CreateClientRequest{FullName: "   "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name: got %v, want ErrValidation", err)
	}
	if _, err := svc.CreateClient(CreateClientRequest{FullName: "Rosa", Email: strP("not-an-email")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad email: got %v, want ErrValidation", err)
	}
}

func TestDeleteClient(t *testing.T) {
	repo := newFakeClientRepo()
	repo.clients[1] = models.Client{ID: 1, FullName: "Has jobs"}
	repo.clients[2] = models.Client{ID: 2, FullName: "No jobs"}
	repo.withJobs = map[int64]bool{1: true}
	svc := NewClientService(repo, newFakeJobRepo(), nil, "US")

	cases := []struct {
		name string
		id   int64
		want error
	}{
		{"referenced by a job", 1, ErrClientInUse},
		{"missing", 42, ErrClientNotFound},
		{"unreferenced", 2, nil},
	}
	for _, tc := range cases {
		if err := svc.DeleteClient(tc.id); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	if _, ok := repo.clients[1]; !ok {
		t.Fatalf("referenced client was deleted")
	}
	if _, ok := repo.clients[2]; ok {
		t.Fatalf("unreferenced client still present")
	}
}

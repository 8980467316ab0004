// Package reqres declares the scenarios exercising the public
// reqres.in demo API: user and resource listings, user CRUD,
// registration, login and a delayed response.
package reqres

import (
	"time"

	"digital.vasic.apisuite/pkg/assertion"
	"digital.vasic.apisuite/pkg/registry"
	"digital.vasic.apisuite/pkg/scenario"
)

// DefaultBaseURL is the public reqres.in endpoint.
const DefaultBaseURL = "https://reqres.in"

// APIKeyHeader is the header reqres.in reads its API key from.
const APIKeyHeader = "x-api-key"

// Scenario categories.
const (
	CategoryUsers     = "users"
	CategoryResources = "resources"
	CategoryAuth      = "auth"
	CategoryTiming    = "timing"
)

// DelayThreshold is the upper bound for the delayed response
// scenario.
const DelayThreshold = 4000 * time.Millisecond

// Scenarios returns the reqres.in suite in execution order.
func Scenarios() []scenario.Scenario {
	return []scenario.Scenario{
		ListUsers(),
		SingleUser(),
		SingleUserNotFound(),
		ListResources(),
		SingleResource(),
		SingleResourceNotFound(),
		CreateUser(),
		UpdateUser(),
		PatchUser(),
		DeleteUser(),
		RegisterSuccessful(),
		RegisterUnsuccessful(),
		LoginSuccessful(),
		LoginUnsuccessful(),
		DelayedResponse(),
	}
}

// Register adds every reqres.in scenario to reg.
func Register(reg registry.Registry) error {
	return registry.RegisterAll(reg, Scenarios()...)
}

// ListUsers fetches the second page of users.
func ListUsers() scenario.Scenario {
	return scenario.New("List users").
		Category(CategoryUsers).
		Description("second page of users has ids and e-mail addresses").
		Get("/api/users").
		Query("page", "2").
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldEquals("page", 2),
			assertion.JSONFieldSatisfies("data", assertion.NonEmpty()),
			assertion.JSONFieldSatisfies("data[*].id", assertion.NotNull()),
			assertion.JSONFieldSatisfies("data[*].email", assertion.Contains("@")),
			assertion.BodyContains("page"),
			assertion.BodyContains("data"),
		).
		MustBuild()
}

// SingleUser fetches user 2.
func SingleUser() scenario.Scenario {
	return scenario.New("Single user").
		Category(CategoryUsers).
		Get("/api/users/2").
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldEquals("data.id", 2),
			assertion.JSONFieldSatisfies("data.email", assertion.Contains("@")),
			assertion.JSONFieldSatisfies("data.first_name", assertion.NotNull()),
			assertion.JSONFieldSatisfies("data.last_name", assertion.NotNull()),
			assertion.JSONFieldSatisfies("data.avatar", assertion.NotNull()),
		).
		MustBuild()
}

// SingleUserNotFound fetches a user that does not exist.
func SingleUserNotFound() scenario.Scenario {
	return scenario.New("Single user not found").
		Category(CategoryUsers).
		Get("/api/users/23").
		Expect(
			assertion.StatusEquals(404),
			assertion.BodyEquals("{}"),
		).
		MustBuild()
}

// ListResources fetches the resource listing.
func ListResources() scenario.Scenario {
	return scenario.New("List resources").
		Category(CategoryResources).
		Get("/api/unknown").
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldSatisfies("data", assertion.NonEmpty()),
		).
		MustBuild()
}

// SingleResource fetches resource 2.
func SingleResource() scenario.Scenario {
	return scenario.New("Single resource").
		Category(CategoryResources).
		Get("/api/unknown/2").
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldEquals("data.id", 2),
			assertion.JSONFieldSatisfies("data.name", assertion.NotNull()),
			assertion.JSONFieldSatisfies("data.year", assertion.NotNull()),
			assertion.JSONFieldSatisfies("data.color", assertion.NotNull()),
			assertion.JSONFieldSatisfies("data.pantone_value", assertion.NotNull()),
		).
		MustBuild()
}

// SingleResourceNotFound fetches a resource that does not
// exist.
func SingleResourceNotFound() scenario.Scenario {
	return scenario.New("Single resource not found").
		Category(CategoryResources).
		Get("/api/unknown/23").
		Expect(
			assertion.StatusEquals(404),
			assertion.BodyEquals("{}"),
		).
		MustBuild()
}

// CreateUser creates a user and expects it echoed back with an
// id.
func CreateUser() scenario.Scenario {
	return scenario.New("Create user").
		Category(CategoryUsers).
		Post("/api/users").
		JSON(map[string]any{"name": "John Doe", "job": "QA Engineer"}).
		Expect(
			assertion.StatusEquals(201),
			assertion.JSONFieldEquals("name", "John Doe"),
			assertion.JSONFieldEquals("job", "QA Engineer"),
			assertion.JSONFieldSatisfies("id", assertion.NotNull()),
		).
		MustBuild()
}

func updateUser(name, method string) scenario.Scenario {
	return scenario.New(name).
		Category(CategoryUsers).
		Request(method, "/api/users/2").
		JSON(map[string]any{"name": "morpheus", "job": "zion resident"}).
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldEquals("name", "morpheus"),
			assertion.JSONFieldEquals("job", "zion resident"),
			assertion.JSONFieldSatisfies("updatedAt", assertion.NotNull()),
		).
		MustBuild()
}

// UpdateUser replaces user 2 with PUT.
func UpdateUser() scenario.Scenario {
	return updateUser("Update user", "PUT")
}

// PatchUser partially updates user 2 with PATCH.
func PatchUser() scenario.Scenario {
	return updateUser("Patch user", "PATCH")
}

// DeleteUser deletes user 2.
func DeleteUser() scenario.Scenario {
	return scenario.New("Delete user").
		Category(CategoryUsers).
		Delete("/api/users/2").
		Expect(assertion.StatusEquals(204)).
		MustBuild()
}

// RegisterSuccessful registers a known demo user.
func RegisterSuccessful() scenario.Scenario {
	return scenario.New("Register successful").
		Category(CategoryAuth).
		Post("/api/register").
		JSON(map[string]any{"email": "eve.holt@reqres.in", "password": "pistol"}).
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldSatisfies("token", assertion.NotNull()),
		).
		MustBuild()
}

// RegisterUnsuccessful registers without a password.
func RegisterUnsuccessful() scenario.Scenario {
	return scenario.New("Register unsuccessful").
		Category(CategoryAuth).
		Post("/api/register").
		JSON(map[string]any{"email": "sydney@fife"}).
		Expect(assertion.StatusEquals(400)).
		MustBuild()
}

// LoginSuccessful logs in as a known demo user.
func LoginSuccessful() scenario.Scenario {
	return scenario.New("Login successful").
		Category(CategoryAuth).
		Post("/api/login").
		JSON(map[string]any{"email": "eve.holt@reqres.in", "password": "cityslicka"}).
		Expect(
			assertion.StatusEquals(200),
			assertion.JSONFieldSatisfies("token", assertion.NotNull()),
		).
		MustBuild()
}

// LoginUnsuccessful logs in without a password.
func LoginUnsuccessful() scenario.Scenario {
	return scenario.New("Login unsuccessful").
		Category(CategoryAuth).
		Post("/api/login").
		JSON(map[string]any{"email": "sydney@fife"}).
		Expect(
			assertion.StatusEquals(400),
			assertion.JSONFieldEquals("error", "Missing password"),
		).
		MustBuild()
}

// DelayedResponse asks the server to delay its answer by one
// second and expects it within DelayThreshold.
func DelayedResponse() scenario.Scenario {
	return scenario.New("Delayed response").
		Category(CategoryTiming).
		Get("/api/users").
		Query("delay", "1").
		Expect(
			assertion.StatusEquals(200),
			assertion.ResponseTimeUnder(DelayThreshold),
		).
		MustBuild()
}

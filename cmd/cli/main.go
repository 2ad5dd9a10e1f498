package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "books":
		handleBooks(args)
	case "loans":
		handleLoans(args)
	case "reservations":
		handleReservations(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`libralend CLI

Usage:
  libralend auth <register|login|logout|who>
  libralend books <search|get>
  libralend loans <issue|return|list>
  libralend reservations <create|cancel|list>

Set LIBRALEND_API to override the API base URL (default http://localhost:8080/api/v1).`)
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: libralend auth <register|login|logout|who>")
		return
	}

	switch args[0] {
	case "register":
		registerMember(args[1:])
	case "login":
		login(args[1:])
	case "logout":
		logout()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleBooks(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: libralend books <search|get>")
		return
	}

	switch args[0] {
	case "search":
		searchBooks(args[1:])
	case "get":
		getBook(args[1:])
	default:
		fmt.Printf("unknown books command: %s\n", args[0])
	}
}

func handleLoans(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: libralend loans <issue|return|list>")
		return
	}

	switch args[0] {
	case "issue":
		issueLoan(args[1:])
	case "return":
		returnLoan(args[1:])
	case "list":
		listLoans(args[1:])
	default:
		fmt.Printf("unknown loans command: %s\n", args[0])
	}
}

func handleReservations(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: libralend reservations <create|cancel|list>")
		return
	}

	switch args[0] {
	case "create":
		createReservation(args[1:])
	case "cancel":
		cancelReservation(args[1:])
	case "list":
		listReservations(args[1:])
	default:
		fmt.Printf("unknown reservations command: %s\n", args[0])
	}
}

// Auth commands

func registerMember(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "member email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *name == "" || *password == "" {
		fmt.Println("Error: email, name, and password are required")
		fs.PrintDefaults()
		return
	}

	result, status := postJSON("/auth/register", map[string]string{
		"email":    *email,
		"name":     *name,
		"password": *password,
	}, "")
	if status == http.StatusCreated {
		fmt.Printf("registered: %s\n", *email)
		saveSession(result)
	} else {
		fmt.Printf("registration failed: %v\n", result["error"])
	}
}

func login(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "member email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	result, status := postJSON("/auth/login", map[string]string{
		"email":    *email,
		"password": *password,
	}, "")
	if status == http.StatusOK {
		fmt.Printf("logged in as: %s\n", *email)
		saveSession(result)
	} else {
		fmt.Printf("login failed: %v\n", result["error"])
	}
}

func logout() {
	token := loadToken()
	if token == "" {
		fmt.Println("not logged in")
		return
	}
	postJSON("/auth/logout", map[string]string{"refreshToken": loadRefreshToken()}, token)
	os.Remove(tokenFile())
	os.Remove(refreshFile())
	fmt.Println("logged out")
}

func whoAmI() {
	result, status := getJSON("/me/loans", nil)
	if status == http.StatusUnauthorized || loadToken() == "" {
		fmt.Println("not logged in")
		return
	}
	_ = result
	fmt.Println("session active")
}

// Books commands

func searchBooks(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	q := fs.String("q", "", "search text")
	author := fs.String("author", "", "author filter")
	category := fs.String("category", "", "category filter")
	availableOnly := fs.Bool("available", false, "only books with available copies")
	fs.Parse(args)

	params := url.Values{}
	if *q != "" {
		params.Set("q", *q)
	}
	if *author != "" {
		params.Set("author", *author)
	}
	if *category != "" {
		params.Set("category", *category)
	}
	if *availableOnly {
		params.Set("availableOnly", "true")
	}

	result, status := getJSON("/books", params)
	if status != http.StatusOK {
		fmt.Printf("search failed: %v\n", result["error"])
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY\tAVAILABLE")
	if items, ok := result["items"].([]interface{}); ok {
		for _, item := range items {
			book := item.(map[string]interface{})
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v/%v\n",
				book["id"], book["title"], book["author"], book["category"],
				book["availableCopies"], book["totalCopies"])
		}
	}
	w.Flush()
}

func getBook(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	id := fs.String("id", "", "book ID")
	fs.Parse(args)

	if *id == "" {
		fmt.Println("Error: id is required")
		return
	}

	result, status := getJSON("/books/"+*id, nil)
	if status != http.StatusOK {
		fmt.Printf("lookup failed: %v\n", result["error"])
		return
	}
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}

// Loan commands

func issueLoan(args []string) {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	user := fs.String("user", "", "user ID")
	copyID := fs.String("copy", "", "copy ID")
	days := fs.Int("days", 0, "loan period in days (0 = server default)")
	fs.Parse(args)

	if *user == "" || *copyID == "" {
		fmt.Println("Error: user and copy are required")
		return
	}

	payload := map[string]interface{}{"userId": *user, "copyId": *copyID}
	if *days != 0 {
		payload["days"] = *days
	}

	result, status := postJSON("/loans/issue", payload, loadToken())
	if status == http.StatusCreated {
		fmt.Printf("loan issued: %v (due %v)\n", result["id"], result["dueDate"])
	} else {
		fmt.Printf("issue failed: %v\n", result["error"])
	}
}

func returnLoan(args []string) {
	fs := flag.NewFlagSet("return", flag.ExitOnError)
	loanID := fs.String("loan", "", "loan ID")
	fs.Parse(args)

	if *loanID == "" {
		fmt.Println("Error: loan is required")
		return
	}

	result, status := postJSON("/loans/return", map[string]string{"loanId": *loanID}, loadToken())
	if status == http.StatusOK {
		fmt.Printf("loan returned: %v\n", result["id"])
	} else {
		fmt.Printf("return failed: %v\n", result["error"])
	}
}

func listLoans(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	user := fs.String("user", "", "user ID (optional when logged in)")
	fs.Parse(args)

	params := url.Values{}
	if *user != "" {
		params.Set("userId", *user)
	}

	result, status := getJSON("/me/loans", params)
	if status != http.StatusOK {
		fmt.Printf("list failed: %v\n", result["error"])
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBOOK\tCOPY\tSTATUS\tDUE")
	if items, ok := result["items"].([]interface{}); ok {
		for _, item := range items {
			loan := item.(map[string]interface{})
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
				loan["id"], loan["bookId"], loan["copyId"], loan["computedStatus"], loan["dueDate"])
		}
	}
	w.Flush()
}

// Reservation commands

func createReservation(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	user := fs.String("user", "", "user ID")
	book := fs.String("book", "", "book ID")
	branch := fs.String("branch", "", "branch ID (optional)")
	fs.Parse(args)

	if *user == "" || *book == "" {
		fmt.Println("Error: user and book are required")
		return
	}

	payload := map[string]string{"userId": *user, "bookId": *book}
	if *branch != "" {
		payload["branchId"] = *branch
	}

	result, status := postJSON("/reservations", payload, loadToken())
	if status == http.StatusCreated {
		fmt.Printf("reservation created: %v (%v)\n", result["id"], result["status"])
	} else {
		fmt.Printf("reservation failed: %v\n", result["error"])
	}
}

func cancelReservation(args []string) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.String("id", "", "reservation ID")
	fs.Parse(args)

	if *id == "" {
		fmt.Println("Error: id is required")
		return
	}

	req, _ := http.NewRequest(http.MethodDelete, apiURL()+"/reservations/"+*id, nil)
	addAuth(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusOK {
		fmt.Printf("reservation cancelled: %v\n", result["id"])
	} else {
		fmt.Printf("cancel failed: %v\n", result["error"])
	}
}

func listReservations(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	user := fs.String("user", "", "user ID (optional when logged in)")
	fs.Parse(args)

	params := url.Values{}
	if *user != "" {
		params.Set("userId", *user)
	}

	result, status := getJSON("/me/reservations", params)
	if status != http.StatusOK {
		fmt.Printf("list failed: %v\n", result["error"])
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBOOK\tSTATUS\tCREATED")
	if items, ok := result["items"].([]interface{}); ok {
		for _, item := range items {
			res := item.(map[string]interface{})
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\n",
				res["id"], res["bookId"], res["status"], res["createdAt"])
		}
	}
	w.Flush()
}

// HTTP helpers

func apiURL() string {
	if u := os.Getenv("LIBRALEND_API"); u != "" {
		return u
	}
	return "http://localhost:8080/api/v1"
}

func postJSON(path string, payload interface{}, token string) (map[string]interface{}, int) {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, apiURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return map[string]interface{}{}, 0
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode
}

func getJSON(path string, params url.Values) (map[string]interface{}, int) {
	u := apiURL() + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, _ := http.NewRequest(http.MethodGet, u, nil)
	addAuth(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return map[string]interface{}{}, 0
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode
}

func addAuth(req *http.Request) {
	if token := loadToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Session persistence

func saveSession(result map[string]interface{}) {
	os.MkdirAll(os.Getenv("HOME")+"/.libralend", 0700)
	if token, ok := result["accessToken"].(string); ok {
		os.WriteFile(tokenFile(), []byte(token), 0600)
	}
	if refresh, ok := result["refreshToken"].(string); ok {
		os.WriteFile(refreshFile(), []byte(refresh), 0600)
	}
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func loadRefreshToken() string {
	data, _ := os.ReadFile(refreshFile())
	return string(data)
}

func tokenFile() string {
	return os.Getenv("HOME") + "/.libralend/token"
}

func refreshFile() string {
	return os.Getenv("HOME") + "/.libralend/refresh"
}

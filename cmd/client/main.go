package main

// Usage example on the command line:
// > PERSONS_API_ROOT=http://localhost:8080 go run . list --sort name --desc
// > go run . create --name "Marcus Antonius" --company SPQR --dob 1983-01-14
// > go run . bench --sizes 1000,5000
func main() {
	Execute()
}

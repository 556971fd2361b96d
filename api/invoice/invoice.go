package invoice

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

func StartInvoiceService(pool *pgxpool.Pool) {
	router := mux.NewRouter()
	router.HandleFunc("/invoice/parse", ParseInvoicesHandler()).Methods("POST")
	router.HandleFunc("/invoice/upload", UploadInvoicesHandler(pool)).Methods("POST")
	router.HandleFunc("/invoice/suggest-mapping", SuggestMappingHandler()).Methods("POST")
	router.HandleFunc("/invoice/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Invoice Service"))
	})

	log.Println("Invoice Service started on :3243")
	if err := http.ListenAndServe(":3243", router); err != nil {
		log.Fatalf("Invoice Service failed: %v", err)
	}
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the quotation engine server. Handles flags,
  dependency wiring and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the JSON history store (reporting malformed-entry warnings)
  3. Wire layout engine, PDF writer and issuer
  4. Configure the HTTP router
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -history   History file path (default: historial_cotizaciones.json)
  -out       Directory for generated PDFs (default: Cotizaciones)
  -images    Directory resolved for logo/item image references
  -company   Company name printed on documents
  -ruc       Company tax id
  -address   Company address
  -logo      Logo image reference (resolved under -images)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait for active requests
  (30s timeout), exit. An in-flight generation either completes its
  append or leaves the store untouched; there is no middle state.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumen/quotation-engine/api"
	"github.com/lumen/quotation-engine/engine"
	"github.com/lumen/quotation-engine/engine/images"
	"github.com/lumen/quotation-engine/render/pdf"
	"github.com/lumen/quotation-engine/store/jsonfile"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	historyPath := flag.String("history", "historial_cotizaciones.json", "history file path")
	outDir := flag.String("out", "Cotizaciones", "directory for generated PDFs")
	imageDir := flag.String("images", "imagenes", "directory for image references")
	companyName := flag.String("company", "TENTACIONES ELENA", "company name")
	companyRUC := flag.String("ruc", "20123456789", "company tax id")
	companyAddr := flag.String("address", "El Palmar 107 Urb. Salamanca Ate", "company address")
	logoRef := flag.String("logo", "", "logo image reference")
	flag.Parse()

	store, err := jsonfile.Open(*historyPath)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	for _, warn := range store.LoadWarnings() {
		log.Printf("history: %v", warn.Err)
	}

	company := engine.CompanyProfile{
		Name:    *companyName,
		TaxID:   *companyRUC,
		Address: *companyAddr,
		LogoRef: *logoRef,
	}
	resolver := images.NewDir(*imageDir)
	layout := engine.NewLayoutEngine(company, resolver)
	writer := pdf.NewWriter(*outDir, resolver)

	issuer := engine.NewIssuer(store, layout, writer, engine.A4Spec())
	issuer.Subscribe(engine.NotifierFunc(func(_ context.Context, r engine.QuotationRecord, location string) {
		log.Printf("issued %s -> %s", r.Key(), location)
	}))

	handler := api.NewHandler(store, issuer)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: router,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Quotation engine listening on :%d (history: %s)", *port, *historyPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	log.Print("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown failed: %v", err)
	}
	log.Print("Server stopped")
}

// Package storefront is the backend of a food-ordering storefront: a product
// catalog, one cart per guest session and order checkout over a JSON API.
/*
storefront/
├── cmd/
│   └── server/            HTTP server entry point
├── internal/
│   ├── cart/              cart state: selection, quantities, ordering, totals
│   │   └── features/      Gherkin scenarios for the cart
│   ├── catalog/           catalog sources (embedded, file, http, s3) and validation
│   │   └── data/          bundled catalog
│   ├── config/            environment configuration
│   ├── database/          GORM connection and migrations
│   ├── handlers/          gin handlers
│   ├── i18n/              message catalogs
│   │   └── locales/
│   ├── middleware/        sessions, CORS, rate limits, request logging
│   ├── models/            persisted orders and catalog records
│   ├── router/            route table and health check
│   ├── services/          catalog, sessions, checkout and payments
│   └── utils/             responses, pagination, validation, tokens, slugs
└── go.mod
*/
package storefront

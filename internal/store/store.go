// Package store persists the raw datasets and the labelled output table in
// Scylla: machine metadata in pdm_meta, day-bucketed data in pdm_data.
package store

import "github.com/gocql/gocql"

type DB struct {
	Meta *gocql.Session // pdm_meta
	Data *gocql.Session // pdm_data
}

func New(metaSess, dataSess *gocql.Session) *DB {
	return &DB{
		Meta: metaSess,
		Data: dataSess,
	}
}

func (db *DB) Close() {
	if db.Meta != nil {
		db.Meta.Close()
	}
	if db.Data != nil {
		db.Data.Close()
	}
}

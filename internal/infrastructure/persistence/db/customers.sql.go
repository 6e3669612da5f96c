package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const getCustomerSQL = `SELECT id, name FROM customer WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id int32) (Customer, error) {
	rows, err := q.db.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return Customer{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Customer])
}

// Members of the customer that hold no direct grant on the project.
const listCustomerOnlyMembersSQL = `
SELECT u.id, u.email
FROM customer_user cu
JOIN users u ON u.id = cu.usid
WHERE cu.cid = $2
  AND NOT EXISTS (SELECT 1 FROM project_user pu WHERE pu.pid = $1 AND pu.usid = cu.usid)
ORDER BY u.id`

func (q *Queries) ListCustomerOnlyMembers(ctx context.Context, projectID, customerID int32) ([]Member, error) {
	rows, err := q.db.Query(ctx, listCustomerOnlyMembersSQL, projectID, customerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Member])
}

const listUserCustomerIDsSQL = `
SELECT cu.cid FROM customer_user cu JOIN users u ON u.id = cu.usid
WHERE u.email = $1 ORDER BY cu.cid`

func (q *Queries) ListUserCustomerIDs(ctx context.Context, email string) ([]int32, error) {
	rows, err := q.db.Query(ctx, listUserCustomerIDsSQL, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int32])
}

const listUserProjectIDsSQL = `
SELECT pu.pid FROM project_user pu JOIN users u ON u.id = pu.usid
WHERE u.email = $1 ORDER BY pu.pid`

func (q *Queries) ListUserProjectIDs(ctx context.Context, email string) ([]int32, error) {
	rows, err := q.db.Query(ctx, listUserProjectIDsSQL, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int32])
}

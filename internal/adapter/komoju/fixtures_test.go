package komoju

const successfulCreditCardPurchaseResponse = `{
  "id": "7e8c55a54256ce23e387f2838c",
  "resource": "payment",
  "status": "captured",
  "amount": 100,
  "tax": 8,
  "payment_deadline": null,
  "payment_details": {
    "type": "credit_card",
    "brand": "visa",
    "last_four_digits": "2220",
    "month": 9,
    "year": 2016
  },
  "payment_method_fee": 0,
  "total": 108,
  "currency": "JPY",
  "description": "Store Purchase",
  "subscription": null,
  "succeeded": true,
  "captured_at": "2015-03-20T04:51:48Z",
  "metadata": {"order_id": "262f2a92-542c-4b4e-a68b-5b6d54a438a8"},
  "created_at": "2015-03-20T04:51:48Z"
}`

const successfulCreditCardRefundResponse = `{
  "id": "7e8c55a54256ce23e387f2838c",
  "resource": "payment",
  "status": "refunded",
  "amount": 100,
  "tax": 8,
  "payment_deadline": null,
  "payment_details": {
    "type": "credit_card",
    "brand": "visa",
    "last_four_digits": "2220",
    "month": 9,
    "year": 2016
  },
  "payment_method_fee": 0,
  "total": 108,
  "currency": "JPY",
  "description": "Store Purchase",
  "subscription": null,
  "captured_at": null,
  "metadata": {"order_id": "262f2a92-542c-4b4e-a68b-5b6d54a438a8"},
  "created_at": "2015-03-20T04:51:48Z",
  "amount_refunded": 108,
  "refunds": [{
    "id": "bdd5d67a0a5a67dc2779bc7726119ece",
    "resource": "refund",
    "amount": 108,
    "currency": "JPY",
    "payment": "9eb7efedb13cedd7963dfa3b78",
    "description": "Full Refund"
  }]
}`

const successfulCreditCardStoreResponse = `{
  "id": "tok_71864f005c9799cc4259b0e3fe3082f9fdba0163115ed77743ee22e070d2cf65chy4ap7vkdlkqymh73afwr652",
  "resource": "token",
  "created_at": "2016-04-26T03:04:07Z",
  "payment_details": {"type": "credit_card", "given_name": "taro", "family_name": "yamada"}
}`

const failedPurchaseResponse = `{
  "error": {
    "code": "missing_parameter",
    "message": "A required parameter (currency) is missing",
    "param": "currency"
  }
}`

const successfulKonbiniPurchaseResponse = `{
  "id": "98f5d7883c951bc21c1dfe947b",
  "resource": "payment",
  "status": "authorized",
  "amount": 1000,
  "tax": 80,
  "payment_deadline": "2015-03-21T14:59:59Z",
  "payment_details": {
    "type": "konbini",
    "store": "lawson",
    "confirmation_code": "3769",
    "receipt": "WNT30356930",
    "instructions_url": "http://www.degica.com/cvs/lawson"
  },
  "payment_method_fee": 150,
  "total": 1230,
  "currency": "JPY",
  "description": null,
  "subscription": null,
  "succeeded": false,
  "captured_at": null,
  "metadata": {"order_id": "262f2a92-542c-4b4e-a68b-5b6d54a438a8"},
  "created_at": "2015-03-20T05:45:55Z"
}`
